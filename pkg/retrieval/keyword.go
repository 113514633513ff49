// Copyright 2025 CreatorCore Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package retrieval implements keyword indexing, hybrid search merging, and
// LLM reranking over a vector backend.
package retrieval

import (
	"sort"
	"strings"
	"sync"
	"unicode"
)

// Document is a retrievable unit.
type Document struct {
	ID       string
	Content  string
	Score    float64
	Metadata map[string]any
}

// KeywordIndex is an in-memory term index. Scores are normalized matched
// term counts over the query's terms.
type KeywordIndex struct {
	mu   sync.RWMutex
	docs map[string]keywordDoc
}

type keywordDoc struct {
	content  string
	terms    map[string]int
	metadata map[string]any
}

// NewKeywordIndex creates an empty index.
func NewKeywordIndex() *KeywordIndex {
	return &KeywordIndex{docs: make(map[string]keywordDoc)}
}

// Add indexes or reindexes a document.
func (idx *KeywordIndex) Add(id, content string, metadata map[string]any) {
	terms := make(map[string]int)
	for _, t := range Tokenize(content) {
		terms[t]++
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.docs[id] = keywordDoc{content: content, terms: terms, metadata: metadata}
}

// Remove drops a document from the index.
func (idx *KeywordIndex) Remove(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.docs, id)
}

// Size returns the number of indexed documents.
func (idx *KeywordIndex) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs)
}

// Search scores every document by the fraction of query terms it contains
// and returns the topK best, score in (0, 1].
func (idx *KeywordIndex) Search(query string, topK int) []Document {
	queryTerms := Tokenize(query)
	if len(queryTerms) == 0 {
		return nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	results := make([]Document, 0)
	for id, doc := range idx.docs {
		matched := 0
		for _, t := range queryTerms {
			if doc.terms[t] > 0 {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		results = append(results, Document{
			ID:       id,
			Content:  doc.content,
			Score:    float64(matched) / float64(len(queryTerms)),
			Metadata: doc.metadata,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}

// Tokenize lowercases and splits on non-letter, non-digit runes. Korean and
// other unicode letters survive intact.
func Tokenize(text string) []string {
	lowered := strings.ToLower(text)
	return strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
