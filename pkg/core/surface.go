package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aymanbagabas/go-udiff"

	"github.com/blackcoderx/apman/pkg/collection"
)

// DescribeSurface renders the operation table as stable plain text: one
// block per operation, sorted by name, listing the method, URL template and
// every required data path.
func DescribeSurface(ops map[string]*Operation) string {
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		op := ops[name]
		fmt.Fprintf(&b, "%s %s %s\n", name, strings.ToUpper(op.Request.MethodOrDefault()), urlTemplate(op.Request.URL))
		for _, p := range op.Shape.Paths() {
			fmt.Fprintf(&b, "  %s\n", p)
		}
	}
	return b.String()
}

// DiffCollections compiles both collections and returns a unified diff of
// their operation surfaces. An empty string means the surfaces match.
// Variables are not checked.
func DiffCollections(oldColl, newColl *collection.Collection, oldLabel, newLabel string) (string, error) {
	oldOps, err := Compile(oldColl, nil)
	if err != nil {
		return "", err
	}
	newOps, err := Compile(newColl, nil)
	if err != nil {
		return "", err
	}

	before := DescribeSurface(oldOps)
	after := DescribeSurface(newOps)
	if before == after {
		return "", nil
	}

	edits := udiff.Strings(before, after)
	unified, err := udiff.ToUnified("a/"+oldLabel, "b/"+newLabel, before, edits, 3)
	if err != nil {
		return "", fmt.Errorf("failed to generate diff: %w", err)
	}
	return unified, nil
}

func urlTemplate(u collection.URL) string {
	if u.HasParts() {
		return joinParts(u)
	}
	return u.RawWithoutQuery()
}
