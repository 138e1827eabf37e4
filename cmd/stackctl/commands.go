package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/meikuraledutech/workflow"
	"github.com/meikuraledutech/workflow/editor"
	"github.com/spf13/cobra"
)

var errOperationFailed = errors.New("operation failed")

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workflows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := editor.NewCatalog()
			if err := catalog.Refresh(cmd.Context(), a.svc); err != nil {
				a.notify.Error(editor.MsgListFailed, true)
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
			for _, e := range catalog.Entries() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.ID, e.Name, e.Description)
			}
			return tw.Flush()
		},
	}
}

func newCreateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name> [description]",
		Short: "Create a workflow",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var description string
			if len(args) > 1 {
				description = args[1]
			}
			creator := &editor.Creator{
				Service:  a.svc,
				Catalog:  editor.NewCatalog(),
				Session:  editor.NewSession(editor.WithLogger(a.log)),
				Notifier: a.notify,
				Log:      a.log,
			}
			id, err := creator.Create(cmd.Context(), args[0], description).Wait(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the nodes and edges of a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := editor.NewSession(editor.WithLogger(a.log))
			if !editor.NewPersister(a.svc, a.log, a.notify).Load(cmd.Context(), s, args[0]) {
				return errOperationFailed
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s\n%s\n\n", s.ID(), s.Name(), s.Description())

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NODE\tKIND\tNAME\tPOSITION")
			for _, n := range s.Nodes() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t(%g, %g)\n", n.ID, n.Kind, n.Name, n.Position.X, n.Position.Y)
			}
			fmt.Fprintln(tw)
			fmt.Fprintln(tw, "EDGE\tFROM\tTO\tLABEL")
			for _, e := range s.Edges() {
				fmt.Fprintf(tw, "%s\t%s:%s\t%s:%s\t%s\n", e.ID, e.Source, e.SourceHandle, e.Target, e.TargetHandle, e.Label)
			}
			return tw.Flush()
		},
	}
}

type scaffoldOptions struct {
	query        string
	model        string
	llmKey       string
	temperature  string
	serpKey      string
	embeddingKey string
	document     string
}

func newScaffoldCmd(a *app) *cobra.Command {
	var o scaffoldOptions
	cmd := &cobra.Command{
		Use:   "scaffold <id>",
		Short: "Replace a workflow with the query, knowledge, model and output pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := editor.NewPersister(a.svc, a.log, a.notify)
			s := editor.NewSession(editor.WithLogger(a.log))
			if !p.Load(cmd.Context(), s, args[0]) {
				return errOperationFailed
			}
			if err := scaffold(s, o); err != nil {
				return err
			}
			if !p.Save(cmd.Context(), s) {
				return errOperationFailed
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.query, "query", "", "query text")
	f.StringVar(&o.model, "model", "", "language model")
	f.StringVar(&o.llmKey, "llm-key", "", "language model API key")
	f.StringVar(&o.temperature, "temperature", "", "sampling temperature between 0 and 1")
	f.StringVar(&o.serpKey, "serp-key", "", "web search API key")
	f.StringVar(&o.embeddingKey, "embedding-key", "", "embedding API key")
	f.StringVar(&o.document, "document", "", "document to attach to the knowledge node")
	return cmd
}

// scaffold rebuilds s as the standard four-node pipeline.
func scaffold(s *editor.Session, o scaffoldOptions) error {
	for _, n := range s.Nodes() {
		s.RemoveNode(n.ID)
	}

	q := s.AddNode(&workflow.Node{Kind: workflow.KindQuery, Position: workflow.Position{X: 0, Y: 100}})
	k := s.AddNode(&workflow.Node{Kind: workflow.KindKnowledge, Position: workflow.Position{X: 300, Y: 0}})
	l := s.AddNode(&workflow.Node{Kind: workflow.KindInference, Position: workflow.Position{X: 600, Y: 100}})
	out := s.AddNode(&workflow.Node{Kind: workflow.KindOutput, Position: workflow.Position{X: 900, Y: 100}})

	for _, c := range []workflow.Connection{
		{Source: q.ID, Target: k.ID, SourceHandle: workflow.HandleSource, TargetHandle: workflow.HandleTarget},
		{Source: k.ID, Target: l.ID, SourceHandle: workflow.HandleSource, TargetHandle: workflow.HandleContext},
		{Source: q.ID, Target: l.ID, SourceHandle: workflow.HandleSource, TargetHandle: workflow.HandleQuery},
		{Source: l.ID, Target: out.ID, SourceHandle: workflow.HandleSource, TargetHandle: workflow.HandleTarget},
	} {
		s.Connect(c)
	}

	if o.query != "" {
		s.UpdateNodeConfig(q.ID, workflow.Patch{"query": o.query})
	}
	s.UpdateNodeConfig(l.ID, nonEmpty(workflow.Patch{
		"model":       o.model,
		"apiKey":      o.llmKey,
		"temperature": o.temperature,
		"serpApiKey":  o.serpKey,
	}))

	kp := nonEmpty(workflow.Patch{"apiKey": o.embeddingKey})
	if o.document != "" {
		data, err := os.ReadFile(o.document)
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}
		name := filepath.Base(o.document)
		kp[workflow.FieldUploadedFile] = &workflow.Attachment{Name: name, Data: data}
		kp["uploadedFileName"] = name
	}
	s.UpdateNodeConfig(k.ID, kp)
	return nil
}

func nonEmpty(p workflow.Patch) workflow.Patch {
	for k, v := range p {
		if v == "" {
			delete(p, k)
		}
	}
	return p
}

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run <id> [query]",
		Short: "Execute a workflow and print the answer",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := editor.NewPersister(a.svc, a.log, a.notify)
			s := editor.NewSession(editor.WithLogger(a.log))
			if !p.Load(cmd.Context(), s, args[0]) {
				return errOperationFailed
			}
			if len(args) > 1 {
				if q := s.FirstOfKind(workflow.KindQuery); q != nil {
					s.UpdateNodeConfig(q.ID, workflow.Patch{"query": args[1]})
				}
			}
			if !p.Run(cmd.Context(), s, a.cfg.Service.UserID) {
				return errOperationFailed
			}
			if out := s.FirstOfKind(workflow.KindOutput); out != nil {
				if c, ok := out.Config.(*workflow.OutputConfig); ok {
					fmt.Fprintln(cmd.OutOrStdout(), c.Output)
				}
			}
			return nil
		},
	}
}
