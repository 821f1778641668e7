// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vector

import "context"

// Result is a single vector-similarity match, common across all providers.
type Result struct {
	ID       string
	Content  string
	Vector   []float32
	Metadata map[string]any
	Score    float32
}

// Provider is the common contract every vector store backend implements,
// so pkg/tool/vectorsearch (spec §4.6's vector-search ToolExecutor) can
// address Qdrant, Chroma, Weaviate, or the embedded chromem-go store
// interchangeably.
type Provider interface {
	Name() string
	Upsert(ctx context.Context, collection string, id string, vector []float32, metadata map[string]any) error
	Search(ctx context.Context, collection string, vector []float32, topK int) ([]Result, error)
	SearchWithFilter(ctx context.Context, collection string, vector []float32, topK int, filter map[string]any) ([]Result, error)
	Delete(ctx context.Context, collection string, id string) error
	DeleteByFilter(ctx context.Context, collection string, filter map[string]any) error
	CreateCollection(ctx context.Context, collection string, vectorDimension int) error
	DeleteCollection(ctx context.Context, collection string) error
	Close() error
}

// NilProvider is a no-op Provider used when no vector store is configured.
type NilProvider struct{}

func (NilProvider) Name() string { return "nil" }
func (NilProvider) Upsert(ctx context.Context, collection string, id string, vector []float32, metadata map[string]any) error {
	return nil
}
func (NilProvider) Search(ctx context.Context, collection string, vector []float32, topK int) ([]Result, error) {
	return nil, nil
}
func (NilProvider) SearchWithFilter(ctx context.Context, collection string, vector []float32, topK int, filter map[string]any) ([]Result, error) {
	return nil, nil
}
func (NilProvider) Delete(ctx context.Context, collection string, id string) error           { return nil }
func (NilProvider) DeleteByFilter(ctx context.Context, collection string, filter map[string]any) error {
	return nil
}
func (NilProvider) CreateCollection(ctx context.Context, collection string, vectorDimension int) error {
	return nil
}
func (NilProvider) DeleteCollection(ctx context.Context, collection string) error { return nil }
func (NilProvider) Close() error                                                 { return nil }
