package s3

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/imamik/safehaven/internal/stack"
	"github.com/imamik/safehaven/internal/util/naming"
)

// objectStore is the subset of Client used by RecordStore.
type objectStore interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
	PutObject(ctx context.Context, key string, data []byte) error
}

// projectDocument is the YAML layout of a project's record object.
type projectDocument struct {
	Project string          `yaml:"project"`
	Stacks  []*stack.Record `yaml:"stacks"`
}

// RecordStore keeps persisted project records as YAML objects, one per
// project, under an optional key prefix.
type RecordStore struct {
	objects objectStore
	prefix  string
}

// NewRecordStore creates a record store on top of client.
func NewRecordStore(client *Client, prefix string) *RecordStore {
	return &RecordStore{objects: client, prefix: prefix}
}

// Get returns the record of a stack.
func (r *RecordStore) Get(ctx context.Context, project, stackName string) (*stack.Record, bool, error) {
	doc, err := r.load(ctx, project)
	if err != nil {
		return nil, false, err
	}
	for _, rec := range doc.Stacks {
		if rec.StackName == stackName {
			return rec, true, nil
		}
	}
	return nil, false, nil
}

// Put inserts or replaces the record of record.StackName.
func (r *RecordStore) Put(ctx context.Context, project string, record *stack.Record) error {
	if record == nil || record.StackName == "" {
		return errors.New("record must name a stack")
	}
	doc, err := r.load(ctx, project)
	if err != nil {
		return err
	}

	replaced := false
	for i, rec := range doc.Stacks {
		if rec.StackName == record.StackName {
			doc.Stacks[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Stacks = append(doc.Stacks, record)
	}
	return r.save(ctx, doc)
}

// Delete removes the record of a stack. Removing an unknown stack is a no-op.
func (r *RecordStore) Delete(ctx context.Context, project, stackName string) error {
	doc, err := r.load(ctx, project)
	if err != nil {
		return err
	}

	kept := doc.Stacks[:0]
	for _, rec := range doc.Stacks {
		if rec.StackName != stackName {
			kept = append(kept, rec)
		}
	}
	if len(kept) == len(doc.Stacks) {
		return nil
	}
	doc.Stacks = kept
	return r.save(ctx, doc)
}

func (r *RecordStore) key(project string) string {
	return naming.ProjectRecord(r.prefix, project)
}

func (r *RecordStore) load(ctx context.Context, project string) (*projectDocument, error) {
	data, err := r.objects.GetObject(ctx, r.key(project))
	if errors.Is(err, ErrObjectNotFound) {
		return &projectDocument{Project: project}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read project record: %w", err)
	}

	var doc projectDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse project record %s: %w", r.key(project), err)
	}
	if doc.Project == "" {
		doc.Project = project
	}
	return &doc, nil
}

func (r *RecordStore) save(ctx context.Context, doc *projectDocument) error {
	sort.Slice(doc.Stacks, func(i, j int) bool {
		return doc.Stacks[i].StackName < doc.Stacks[j].StackName
	})
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode project record: %w", err)
	}
	if err := r.objects.PutObject(ctx, r.key(doc.Project), data); err != nil {
		return fmt.Errorf("failed to write project record: %w", err)
	}
	return nil
}
