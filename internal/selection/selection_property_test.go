package selection_test

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/temirov/promptctx/internal/selection"
)

func TestStoreProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	pathGenerator := gen.RegexMatch(`[a-d]{1,2}(/[a-d]{1,2})?\.(go|py|md)`)

	properties.Property("select then deselect of a new path restores the store", prop.ForAll(
		func(existing []string, candidate string) bool {
			store := selection.NewStore()
			for _, path := range existing {
				store.Select(path)
			}
			if store.Contains(candidate) {
				return true
			}
			before := store.Entries()
			store.Select(candidate)
			store.Deselect(candidate)
			return reflect.DeepEqual(before, store.Entries())
		},
		gen.SliceOf(pathGenerator),
		pathGenerator,
	))

	properties.Property("entries match a reference ordered set", prop.ForAll(
		func(paths []string, toggles []bool) bool {
			store := selection.NewStore()
			var reference []string
			for index, path := range paths {
				removing := index < len(toggles) && toggles[index]
				position := -1
				for referenceIndex, referencePath := range reference {
					if referencePath == path {
						position = referenceIndex
						break
					}
				}
				if removing {
					store.Deselect(path)
					if position >= 0 {
						reference = append(reference[:position], reference[position+1:]...)
					}
					continue
				}
				store.Select(path)
				if position < 0 {
					reference = append(reference, path)
				}
			}
			if reference == nil {
				reference = []string{}
			}
			return reflect.DeepEqual(store.Entries(), reference) && store.Len() == len(reference)
		},
		gen.SliceOf(pathGenerator),
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
