package launcher

import (
	"context"
	"fmt"

	"github.com/oxy-run/oxy/pkg/config"
	"github.com/oxy-run/oxy/pkg/embedder"
	"github.com/oxy-run/oxy/pkg/tool/mcp"
	sqltool "github.com/oxy-run/oxy/pkg/tool/sql"
	"github.com/oxy-run/oxy/pkg/tool/vectorsearch"
	"github.com/oxy-run/oxy/pkg/vector"
)

// vectorProviderConfig maps the flat config.VectorStoreConfig onto
// vector.ProviderConfig's nested per-type shape (config.go predates
// pkg/vector's provider split and was never updated to match it).
func vectorProviderConfig(c *config.VectorStoreConfig) (*vector.ProviderConfig, error) {
	out := &vector.ProviderConfig{Type: vector.ProviderType(c.Type)}
	switch out.Type {
	case vector.ProviderChromem, "":
		out.Type = vector.ProviderChromem
		out.Chromem = &vector.ChromemConfig{PersistPath: c.PersistPath, Compress: c.Compress}
	case vector.ProviderQdrant:
		out.Qdrant = &vector.QdrantConfig{
			Host:   c.Host,
			Port:   c.Port,
			APIKey: c.APIKey,
			UseTLS: config.BoolValue(c.EnableTLS, false),
		}
	case vector.ProviderWeaviate:
		out.Weaviate = &vector.WeaviateConfig{
			Host:   c.Host,
			Port:   c.Port,
			APIKey: c.APIKey,
			UseTLS: config.BoolValue(c.EnableTLS, false),
		}
	case vector.ProviderChroma:
		out.Chroma = &vector.ChromaConfig{
			Host:   c.Host,
			Port:   c.Port,
			APIKey: c.APIKey,
			UseTLS: config.BoolValue(c.EnableTLS, false),
		}
	default:
		return nil, fmt.Errorf("launcher: vector store type %q has no pkg/vector provider", c.Type)
	}
	return out, nil
}

// buildVectorProviders constructs a vector.Provider per configured named
// vector store, keyed the same way config.Config.VectorStores is.
func (l *Launcher) buildVectorProviders() error {
	for name, vsCfg := range l.cfg.VectorStores {
		if vsCfg == nil {
			continue
		}
		pc, err := vectorProviderConfig(vsCfg)
		if err != nil {
			return err
		}
		pc.SetDefaults()
		provider, err := vector.NewProvider(pc)
		if err != nil {
			return fmt.Errorf("launcher: vector store %q: %w", name, err)
		}
		l.vectorProviders[name] = provider
	}
	return nil
}

// buildEmbedders constructs an embedder.Client per configured embedder.
func (l *Launcher) buildEmbedders() {
	for name, embCfg := range l.cfg.Embedders {
		if embCfg == nil {
			continue
		}
		l.embedders[name] = embedder.New(embedder.Config{
			Provider: embCfg.Provider,
			Model:    embCfg.Model,
			APIKey:   embCfg.APIKey,
			BaseURL:  embCfg.BaseURL,
		})
	}
}

// registerVectorSearchTools exposes every (vector store, embedder) pair a
// document store references as a "semantic_query" toolregistry.ToolExecutor
// (spec §4.5's SemanticQueryTrigger dispatches through this registration).
func (l *Launcher) registerVectorSearchTools() error {
	for name, store := range l.cfg.DocumentStores {
		if store == nil || store.VectorStore == "" || store.Embedder == "" {
			continue
		}
		provider, ok := l.vectorProviders[store.VectorStore]
		if !ok {
			return fmt.Errorf("launcher: document store %q: vector store %q not built", name, store.VectorStore)
		}
		emb, ok := l.embedders[store.Embedder]
		if !ok {
			return fmt.Errorf("launcher: document store %q: embedder %q not built", name, store.Embedder)
		}
		executor := vectorsearch.New("semantic_query", provider, emb)
		if err := l.tools.Register(executor); err != nil {
			return fmt.Errorf("launcher: register vectorsearch executor for %q: %w", name, err)
		}
	}
	return nil
}

// registerMCPTools connects to every configured stdio MCP server and
// registers its discovered tools in the toolregistry (spec §4.6 domain
// stack).
func (l *Launcher) registerMCPTools(ctx context.Context) error {
	for name, toolCfg := range l.cfg.Tools {
		if toolCfg == nil || toolCfg.Type != config.ToolTypeMCP || toolCfg.Command == "" {
			continue
		}
		executor, err := mcp.New(ctx, mcp.Config{
			Name:    name,
			Command: toolCfg.Command,
			Args:    toolCfg.Args,
			Env:     toolCfg.Env,
		})
		if err != nil {
			return fmt.Errorf("launcher: mcp tool %q: %w", name, err)
		}
		if err := l.tools.Register(executor); err != nil {
			return fmt.Errorf("launcher: register mcp executor %q: %w", name, err)
		}
	}
	return nil
}

// registerSQLTools registers a "sql:<name>" toolregistry.ToolExecutor per
// configured database, the homes pkg/fsm.QueryTrigger's generated queries
// dispatch into (spec §4.5 scenario 1). Every executor shares l.dbPool so
// repeated queries against the same database reuse one connection pool.
func (l *Launcher) registerSQLTools() {
	for name, dbCfg := range l.cfg.Databases {
		if dbCfg == nil {
			continue
		}
		executor := sqltool.New(name, dbCfg, l.dbPool)
		if err := l.tools.Register(executor); err != nil {
			l.log.Warn("launcher: register sql executor failed", "database", name, "error", err)
		}
	}
}
