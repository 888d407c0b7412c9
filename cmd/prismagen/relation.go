package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tordrt/prismagen/internal/schema"
	"github.com/tordrt/prismagen/internal/state"
)

func newRelationCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "relation",
		Aliases: []string{"relationship"},
		Short:   "List and edit the relationships of the stored data model",
	}
	cmd.AddCommand(
		newRelationListCmd(a),
		newRelationAddCmd(a),
		newRelationDeleteCmd(a),
	)
	return cmd
}

func newRelationListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List relationships in document order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withState(cmd, func(c *state.Container) error {
				doc := c.Snapshot()
				w := cmd.OutOrStdout()
				for _, r := range doc.Relationships {
					mappings := make([]string, len(r.Config.Fields))
					for i, m := range r.Config.Fields {
						mappings[i] = m.FieldName + ":" + m.ReferencedField
					}
					_, _ = fmt.Fprintf(w, "%s\t%s -> %s\t%s\t%s\n",
						r.ID, doc.ModelName(r.FromModel), doc.ModelName(r.ToModel), r.Type, strings.Join(mappings, ","))
				}
				return nil
			})
		},
	}
}

func newRelationAddCmd(a *app) *cobra.Command {
	var (
		id, from, to, relType string
		onDelete, onUpdate    string
		fields                []string
	)
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add a relationship between two models",
		Example: `  prismagen relation add --from Post --to User --type one-to-many --field authorId:id --on-delete cascade`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := schema.Relationship{
				ID:   id,
				Type: parseRelationType(relType),
				Config: schema.RelationConfig{
					OnDelete: parseAction(onDelete),
					OnUpdate: parseAction(onUpdate),
				},
			}
			for _, spec := range fields {
				m, err := parseMapping(spec)
				if err != nil {
					return err
				}
				r.Config.Fields = append(r.Config.Fields, m)
			}

			return a.withState(cmd, func(c *state.Container) error {
				doc := c.Snapshot()
				fromModel, err := resolveModel(doc, from)
				if err != nil {
					return err
				}
				toModel, err := resolveModel(doc, to)
				if err != nil {
					return err
				}
				r.FromModel, r.ToModel = fromModel.ID, toModel.ID
				if r.ID == "" {
					r.ID = c.NewID()
				}

				_, diags, err := c.AddRelationship(r)
				if err != nil {
					return err
				}
				printWarnings(cmd.ErrOrStderr(), diags)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added relationship %s -> %s (%s)\n", fromModel.Name, toModel.Name, r.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Relationship id (default: a new ULID)")
	cmd.Flags().StringVar(&from, "from", "", "Source model that owns the foreign key fields (id or name)")
	cmd.Flags().StringVar(&to, "to", "", "Target model (id or name)")
	cmd.Flags().StringVar(&relType, "type", string(schema.OneToMany), "one-to-one, one-to-many or many-to-many")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "Field mapping as field:referencedField (repeatable)")
	cmd.Flags().StringVar(&onDelete, "on-delete", "", "Referential action on delete")
	cmd.Flags().StringVar(&onUpdate, "on-update", "", "Referential action on update")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newRelationDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a relationship",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withState(cmd, func(c *state.Container) error {
				if _, err := c.DeleteRelationship(args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted relationship %s\n", args[0])
				return nil
			})
		},
	}
}
