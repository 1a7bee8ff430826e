package mcpserver

// FormatContract describes the package database format that LLM consumers
// should follow when proposing new entries.
const FormatContract = `# climap Package Database Format

The package database (known_packages.ccl) maps a canonical package name to the
package sources that ship it.

## Structure

` + "```" + `
/= comment lines start with "/=" and may appear anywhere
<name> =
  = <source>                 # available under <name>
  <source> = <other-name>    # available under a different name
  <source> =                 # nested block of per-source directives
    <key> = <value>
  _sources =                 # plain sources, used when overrides exist
    = <source>
` + "```" + `

## Rules

1. **Headers** start at column 0 and end with " =". Names use letters, digits,
   and the characters "-", "_", ".", "@", "/", and may not start with "_".
   Lookups ignore case.
2. **Indentation** is spaces only: two for statements, four inside nested blocks.
3. **Entries without overrides** list their sources as "= <source>" lines.
4. **Entries with overrides** list plain sources inside a "_sources =" block.
5. A source appears at most once per entry.
6. **Sources** must be one of: brew, scoop, npm, cargo, nix, apt, pacman, aur,
   flathub, pip (or the configured set).
7. Canonical files put simple entries first, then entries with overrides,
   each group sorted by name.

## Example

` + "```" + `
bat =
  = brew
  = scoop

fd =
  apt = fd-find
  _sources =
    = brew
    = scoop

node =
  scoop =
    pre = nvm install
  _sources =
    = brew
` + "```" + `
`
