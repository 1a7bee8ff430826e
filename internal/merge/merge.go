// Package merge folds verified packages into a package database.
package merge

import (
	"fmt"
	"log/slog"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/climap/internal/ccl"
	"github.com/starford/climap/internal/models"
)

// Options controls a merge.
type Options struct {
	// MinSources skips verified packages confirmed in fewer sources.
	MinSources int
	// ValidSources is the set of source ids a verified package may reference.
	// Empty disables the check.
	ValidSources []string
	Logger       *slog.Logger
}

// Stats summarises a merge.
type Stats struct {
	Added     int
	Updated   int
	Unchanged int
	Skipped   int
	Rejected  int
	// NewNames lists the names of added entries in input order.
	NewNames []string
}

// Changed reports whether the merge altered the document.
func (s Stats) Changed() bool {
	return s.Added > 0 || s.Updated > 0
}

// Merge applies verified to a copy of doc and returns the copy.
// doc itself is never modified. Merging the same input twice gives the same
// document as merging it once.
func Merge(doc *ccl.Document, verified []models.VerifiedPackage, opts Options) (*ccl.Document, Stats) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	out := doc.Clone()
	var st Stats

	for _, vp := range verified {
		if err := ValidatePackage(vp, opts.ValidSources); err != nil {
			st.Rejected++
			logger.Warn("merge: rejected verified package",
				slog.String("name", vp.Name),
				slog.String("error", err.Error()),
			)
			continue
		}
		if len(vp.VerifiedSources) < opts.MinSources {
			st.Skipped++
			continue
		}

		existing, ok := out.Get(vp.Name)
		if !ok {
			e := ccl.NewEntry(vp.Name)
			apply(e, vp)
			out.Set(e)
			st.Added++
			st.NewNames = append(st.NewNames, vp.Name)
			continue
		}

		before := existing.Clone()
		apply(existing, vp)
		if existing.Equal(before) {
			st.Unchanged++
		} else {
			st.Updated++
		}
	}
	return out, st
}

// apply classifies every verified source of vp into e. A source keeping the
// canonical name becomes a plain source unless it is already renamed; any other
// local name becomes an override unless the source has a nested block.
func apply(e *ccl.PackageEntry, vp models.VerifiedPackage) {
	for _, source := range sortedSources(vp.VerifiedSources) {
		local := vp.VerifiedSources[source]
		if e.HasComplex(source) {
			continue
		}
		if local == vp.Name {
			if _, renamed := e.Overrides[source]; !renamed {
				e.AddSource(source)
			}
			continue
		}
		e.SetOverride(source, local)
		e.RemoveSource(source)
	}
}

func sortedSources(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ValidatePackage checks that vp can be written as a package block.
func ValidatePackage(vp models.VerifiedPackage, validSources []string) error {
	err := validation.ValidateStruct(&vp,
		validation.Field(&vp.Name,
			validation.Required,
			validation.By(func(any) error {
				if !ccl.ValidName(vp.Name) {
					return fmt.Errorf("%q is not a valid package name", vp.Name)
				}
				return nil
			}),
		),
		validation.Field(&vp.VerifiedSources,
			validation.Required.Error("no verified sources"),
			validation.Each(validation.Required),
			validation.By(func(any) error {
				return checkSources(vp.VerifiedSources, validSources)
			}),
		),
	)
	if err != nil {
		return fmt.Errorf("merge: validate %q: %w", vp.Name, err)
	}
	return nil
}

func checkSources(sources map[string]string, valid []string) error {
	if len(valid) == 0 {
		return nil
	}
	for _, s := range sortedSources(sources) {
		if !slices.Contains(valid, s) {
			return fmt.Errorf("unknown source %q", s)
		}
	}
	return nil
}
