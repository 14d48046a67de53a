package core

import (
	"fmt"
	"strings"

	"github.com/blackcoderx/apman/pkg/collection"
	"github.com/blackcoderx/apman/pkg/naming"
	"github.com/blackcoderx/apman/pkg/schema"
	"github.com/blackcoderx/apman/pkg/shape"
)

// Compile walks the collection depth-first in declared order and builds one
// operation per request item. Every item that fails to compile is reported
// in a single construction error. When two items fold to the same name the
// later one wins.
func Compile(coll *collection.Collection, env *Env, opts ...Option) (map[string]*Operation, error) {
	return compile(coll, env, buildOptions(opts))
}

func compile(coll *collection.Collection, env *Env, o *options) (map[string]*Operation, error) {
	if coll == nil {
		return nil, constructionError("a collection is required", nil)
	}
	if env == nil {
		env = NewEnv(nil)
	}

	ops := make(map[string]*Operation)
	var problems []string

	var walk func(chain []string, items []collection.Item)
	walk = func(chain []string, items []collection.Item) {
		for _, item := range items {
			itemChain := append(chain[:len(chain):len(chain)], item.Name)

			if item.IsFolder() {
				walk(itemChain, item.Items)
				continue
			}

			op, err := compileItem(itemChain, *item.Request, env, o)
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s: %v", strings.Join(itemChain, " / "), err))
				continue
			}

			if prev, ok := ops[op.Name]; ok {
				o.log.Warn("operation.collision",
					"name", op.Name,
					"replaced", strings.Join(prev.Chain, " / "),
					"by", strings.Join(op.Chain, " / "))
			}
			ops[op.Name] = op
		}
	}
	walk(nil, coll.Items)

	if len(problems) > 0 {
		return nil, constructionError("failed to compile collection:\n  "+strings.Join(problems, "\n  "), nil)
	}

	o.log.Debug("collection.compiled", "collection", coll.Info.Name, "operations", len(ops))
	return ops, nil
}

func compileItem(chain []string, req collection.Request, env *Env, o *options) (*Operation, error) {
	name := naming.Resolve(chain...)
	if name == "" {
		return nil, fmt.Errorf("cannot derive an operation name")
	}

	s, err := shape.Extract(req)
	if err != nil {
		return nil, err
	}

	sch, err := schema.Build(s)
	if err != nil {
		return nil, err
	}

	return &Operation{
		Name:    name,
		Chain:   chain,
		Shape:   s,
		Schema:  sch,
		Request: req,
		env:     env,
		opts:    o,
	}, nil
}
