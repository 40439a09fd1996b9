package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	formstate "github.com/goliatone/go-formstate"
	"github.com/goliatone/go-formstate/pkg/dotpath"
	"github.com/goliatone/go-formstate/pkg/formdef"
)

type values = map[string]any

func main() {
	defs := flag.String("defs", "forms", "directory holding form definition files")
	formName := flag.String("form", "", "form name (prompted when empty)")
	output := flag.String("output", "", "output file for the final state (stdout if empty)")
	flag.Parse()

	ctx := context.Background()
	driver := surveyDriver{}

	registry, err := formdef.Load(os.DirFS(*defs))
	if err != nil {
		log.Fatalf("Failed to load definitions: %v", err)
	}
	if registry.Empty() {
		log.Fatalf("No form definitions under %s", *defs)
	}

	name, err := pickForm(ctx, driver, registry, *formName)
	if err != nil {
		exitOnAbort(err)
		log.Fatalf("Failed to pick form: %v", err)
	}

	manager, err := formdef.Build[values](ctx, registry, name,
		formstate.WithOnSubmit[values](func(ctx context.Context, state formstate.State[values]) error {
			fmt.Printf("Submitted %q\n", name)
			return nil
		}),
	)
	if err != nil {
		log.Fatalf("Failed to build form: %v", err)
	}

	if err := session(ctx, driver, manager); err != nil {
		exitOnAbort(err)
		log.Fatalf("Session failed: %v", err)
	}

	state, err := manager.Get(ctx)
	if err != nil {
		log.Fatalf("Failed to read final state: %v", err)
	}
	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode state: %v", err)
	}

	if *output != "" {
		if err := os.WriteFile(*output, append(payload, '\n'), 0o644); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		fmt.Printf("State written to %s\n", *output)
	} else {
		fmt.Println(string(payload))
	}
}

func pickForm(ctx context.Context, driver promptDriver, registry *formdef.Registry, name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed != "" {
		if _, ok := registry.Form(trimmed); !ok {
			return "", fmt.Errorf("form %q not found, have %s", trimmed, strings.Join(registry.Names(), ", "))
		}
		return trimmed, nil
	}

	names := registry.Names()
	if len(names) == 1 {
		return names[0], nil
	}
	return driver.Select(ctx, "Pick a form", names)
}

// session prompts for every declared field, then validates and submits. On
// validation failure the user can revise the offending fields or abort.
func session(ctx context.Context, driver promptDriver, manager *formstate.Manager[values]) error {
	for {
		if err := fill(ctx, driver, manager); err != nil {
			return err
		}

		state, err := manager.Validate(ctx, true)
		if err != nil {
			return err
		}
		if !state.IsValid {
			printErrors(state.Errors)
			again, err := driver.Confirm(ctx, "Fix the highlighted fields?", true)
			if err != nil {
				return err
			}
			if !again {
				return errAborted
			}
			continue
		}

		submit, err := driver.Confirm(ctx, "Submit?", true)
		if err != nil {
			return err
		}
		if !submit {
			return errAborted
		}
		return manager.Submit(ctx)
	}
}

// fill walks the value leaves declared by the definition and prompts for
// each scalar. Containers only shape the tree, so they are skipped.
func fill(ctx context.Context, driver promptDriver, manager *formstate.Manager[values]) error {
	current, err := manager.Values(ctx)
	if err != nil {
		return err
	}

	for _, leaf := range dotpath.Leaves(current) {
		switch value := leaf.Value.(type) {
		case map[string]any, []any:
			continue
		case bool:
			next, err := driver.Confirm(ctx, leaf.Path, value)
			if err != nil {
				return err
			}
			if err := manager.SetFieldValue(ctx, leaf.Path, next); err != nil {
				return err
			}
		default:
			raw, err := driver.Input(ctx, leaf.Path, renderValue(value))
			if err != nil {
				return err
			}
			if err := manager.SetFieldValue(ctx, leaf.Path, parseValue(raw)); err != nil {
				return err
			}
		}
	}
	return nil
}

func printErrors(errs map[string]any) {
	fmt.Println("The form has validation errors:")
	for _, leaf := range dotpath.Leaves(errs) {
		if message, ok := leaf.Value.(string); ok && message != "" {
			fmt.Printf("  %s: %s\n", leaf.Path, message)
		}
	}
}

func renderValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", typed)
	}
}

// parseValue keeps prompt answers JSON-shaped: numbers and booleans stay
// typed, everything else is a string.
func parseValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	switch trimmed {
	case "true":
		return true
	case "false":
		return false
	}
	if number, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return number
	}
	return raw
}

func exitOnAbort(err error) {
	if errors.Is(err, errAborted) {
		fmt.Fprintln(os.Stderr, "Aborted.")
		os.Exit(1)
	}
}
