package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tordrt/prismagen/internal/schema"
	"github.com/tordrt/prismagen/internal/state"
)

func newModelCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "List and edit the models of the stored data model",
	}
	cmd.AddCommand(
		newModelListCmd(a),
		newModelAddCmd(a),
		newModelDeleteCmd(a),
		newModelAddFieldCmd(a),
		newModelMoveCmd(a),
	)
	return cmd
}

// withState opens the store and runs fn against a container that saves every commit
func (a *app) withState(cmd *cobra.Command, fn func(c *state.Container) error) error {
	ctx := cmd.Context()

	store, err := a.openStore(ctx, nil)
	if err != nil {
		return err
	}
	defer a.closeStore(cmd, store)

	c, err := a.openState(ctx, store)
	if err != nil {
		return err
	}
	return fn(c)
}

func newModelListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List models in document order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withState(cmd, func(c *state.Container) error {
				w := cmd.OutOrStdout()
				for _, m := range c.Snapshot().Models {
					_, _ = fmt.Fprintf(w, "%s\t%s\t%d fields\n", m.ID, m.Name, len(m.Fields))
				}
				return nil
			})
		},
	}
}

func newModelAddCmd(a *app) *cobra.Command {
	var (
		id     string
		fields []string
		attrs  []string
	)
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a model",
		Example: `  prismagen model add User --field id:Int@id@default(1) --field email:String@unique \
    --attr '@@map("users")'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := schema.Model{ID: id, Name: args[0]}
			for _, spec := range fields {
				f, err := parseFieldSpec(spec)
				if err != nil {
					return err
				}
				m.Fields = append(m.Fields, f)
			}
			for _, spec := range attrs {
				attr, err := parseModelAttribute(spec)
				if err != nil {
					return err
				}
				m.Attributes = append(m.Attributes, attr)
			}

			return a.withState(cmd, func(c *state.Container) error {
				if m.ID == "" {
					m.ID = c.NewID()
				}
				_, diags, err := c.AddModel(m)
				if err != nil {
					return err
				}
				printWarnings(cmd.ErrOrStderr(), diags)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added model %s (%s)\n", m.Name, m.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Model id (default: a new ULID)")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "Field as name:Type[?|[]][@attr...] (repeatable)")
	cmd.Flags().StringArrayVar(&attrs, "attr", nil, "Model attribute as @@name(value) (repeatable)")
	return cmd
}

func newModelDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete MODEL",
		Short: "Delete a model and every relationship that references it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withState(cmd, func(c *state.Container) error {
				m, err := resolveModel(c.Snapshot(), args[0])
				if err != nil {
					return err
				}
				_, removed, err := c.DeleteModel(m.ID)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted model %s and %d relationship(s)\n", m.Name, len(removed))
				return nil
			})
		},
	}
}

func newModelAddFieldCmd(a *app) *cobra.Command {
	var at int
	cmd := &cobra.Command{
		Use:   "add-field MODEL FIELD...",
		Short: "Append fields to a model",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withState(cmd, func(c *state.Container) error {
				m, err := resolveModel(c.Snapshot(), args[0])
				if err != nil {
					return err
				}

				pos := len(m.Fields)
				if at >= 0 && at < pos {
					pos = at
				}
				for _, spec := range args[1:] {
					f, err := parseFieldSpec(spec)
					if err != nil {
						return err
					}
					m = m.InsertField(pos, f)
					pos++
				}

				_, diags, err := c.UpdateModel(m.ID, m)
				if err != nil {
					return err
				}
				printWarnings(cmd.ErrOrStderr(), diags)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Model %s now has %d fields\n", m.Name, len(m.Fields))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&at, "at", -1, "Insert position (default: append)")
	return cmd
}

func newModelMoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move MODEL INDEX",
		Short: "Move a model to a new position in document order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[1], err)
			}
			return a.withState(cmd, func(c *state.Container) error {
				m, err := resolveModel(c.Snapshot(), args[0])
				if err != nil {
					return err
				}
				if _, err := c.MoveModel(m.ID, to); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Moved model %s to position %d\n", m.Name, to)
				return nil
			})
		},
	}
}
