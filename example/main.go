package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/workflow"
	"github.com/meikuraledutech/workflow/editor"
	"github.com/meikuraledutech/workflow/memory"
	"github.com/meikuraledutech/workflow/postgres"
	"github.com/meikuraledutech/workflow/wire"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	// Wire up postgres when DATABASE_URL is set, the in-memory store otherwise.
	var store workflow.Store = memory.New()
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			log.Fatalf("connect: %v", err)
		}
		defer pool.Close()
		store = postgres.New(pool)
	}

	// 1. Create tables
	if err := store.CreateSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}
	fmt.Println("schema created")

	// ── Build a pipeline in an editor session ─────────────────────────
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	s := editor.NewSession(editor.WithLogger(logger))
	s.Select("support-bot")
	s.SetMeta("Support bot", "answers questions from the product handbook")

	q := s.AddNode(&workflow.Node{Kind: workflow.KindQuery})
	k := s.AddNode(&workflow.Node{Kind: workflow.KindKnowledge, Position: workflow.Position{X: 300}})
	l := s.AddNode(&workflow.Node{Kind: workflow.KindInference, Position: workflow.Position{X: 600}})
	o := s.AddNode(&workflow.Node{Kind: workflow.KindOutput, Position: workflow.Position{X: 900}})

	s.Connect(workflow.Connection{Source: q.ID, Target: k.ID, SourceHandle: workflow.HandleSource, TargetHandle: workflow.HandleTarget})
	s.Connect(workflow.Connection{Source: k.ID, Target: l.ID, SourceHandle: workflow.HandleSource, TargetHandle: workflow.HandleContext})
	s.Connect(workflow.Connection{Source: q.ID, Target: l.ID, SourceHandle: workflow.HandleSource, TargetHandle: workflow.HandleQuery})
	s.Connect(workflow.Connection{Source: l.ID, Target: o.ID, SourceHandle: workflow.HandleSource, TargetHandle: workflow.HandleTarget})

	s.UpdateNodeConfig(q.ID, workflow.Patch{"query": "How do I reset my password?"})
	s.UpdateNodeConfig(l.ID, workflow.Patch{"model": "gpt-4o-mini", "temperature": "0.2"})

	fmt.Println("\nedges:")
	for _, e := range s.Edges() {
		fmt.Printf("  %s -> %s  %s\n", e.Source, e.Target, e.Label)
	}

	// ── Store it through the wire format ──────────────────────────────
	form, err := wire.EncodeUpdate(s.Snapshot())
	if err != nil {
		log.Fatalf("encode: %v", err)
	}
	rec := &workflow.Record{
		ID:          s.ID(),
		Name:        form.Name,
		Description: form.Description,
		Nodes:       json.RawMessage(form.Nodes),
		Edges:       json.RawMessage(form.Edges),
		Config:      json.RawMessage(form.Config),
	}
	if err := store.CreateWorkflow(ctx, rec); err != nil {
		log.Fatalf("create workflow: %v", err)
	}
	fmt.Println("\nworkflow stored")

	// ── Retrieve ──────────────────────────────────────────────────────
	got, err := store.GetWorkflow(ctx, s.ID())
	if err != nil {
		log.Fatalf("get workflow: %v", err)
	}
	w, err := wire.DecodeWorkflow(got.ID, &workflow.Document{
		Name:        got.Name,
		Description: got.Description,
		Nodes:       got.Nodes,
		Edges:       got.Edges,
		Config:      got.Config,
	})
	if err != nil {
		log.Fatalf("decode: %v", err)
	}
	fmt.Println("\nworkflow retrieved:")
	printJSON(w.Overall)

	// ── List ──────────────────────────────────────────────────────────
	list, err := store.ListWorkflows(ctx)
	if err != nil {
		log.Fatalf("list: %v", err)
	}
	fmt.Printf("\nworkflows (%d):\n", len(list))
	printJSON(list)

	// ── Cleanup ───────────────────────────────────────────────────────
	if err := store.DropSchema(ctx); err != nil {
		log.Fatalf("drop: %v", err)
	}
	fmt.Println("\nschema dropped")
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
