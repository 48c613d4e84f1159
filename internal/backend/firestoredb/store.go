// Package firestoredb implements backend.DocumentStore on Cloud Firestore.
package firestoredb

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sixchat/sixchat-backend/internal/backend"
)

type Store struct {
	client *firestore.Client
}

func New(client *firestore.Client) *Store {
	return &Store{client: client}
}

func (s *Store) doc(path string) (*firestore.DocumentRef, error) {
	ref := s.client.Doc(path)
	if ref == nil {
		return nil, backend.ErrInvalidPath
	}
	return ref, nil
}

func (s *Store) collection(path string) (*firestore.CollectionRef, error) {
	ref := s.client.Collection(path)
	if ref == nil {
		return nil, backend.ErrInvalidPath
	}
	return ref, nil
}

func (s *Store) GetDocument(ctx context.Context, path string) (*backend.Snapshot, error) {
	ref, err := s.doc(path)
	if err != nil {
		return nil, err
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return &backend.Snapshot{ID: ref.ID, Path: path}, nil
		}
		return nil, err
	}
	return toSnapshot(path, snap), nil
}

func (s *Store) SubscribeDocument(ctx context.Context, path string, fn func(*backend.Snapshot, error)) backend.Unsubscribe {
	ref, err := s.doc(path)
	if err != nil {
		go fn(nil, err)
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	it := ref.Snapshots(ctx)
	go func() {
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if !isStopped(ctx, err) {
					fn(nil, err)
				}
				return
			}
			fn(toSnapshot(path, snap), nil)
		}
	}()
	return backend.Unsubscribe(cancel)
}

func (s *Store) SubscribeQuery(ctx context.Context, q backend.Query, fn func([]*backend.Snapshot, error)) backend.Unsubscribe {
	query, err := s.buildQuery(q)
	if err != nil {
		go fn(nil, err)
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	it := query.Snapshots(ctx)
	go func() {
		defer it.Stop()
		for {
			qs, err := it.Next()
			if err == nil {
				var docs []*firestore.DocumentSnapshot
				docs, err = qs.Documents.GetAll()
				if err == nil {
					fn(toSnapshots(q.Collection, docs), nil)
					continue
				}
			}
			if !isStopped(ctx, err) {
				fn(nil, err)
			}
			return
		}
	}()
	return backend.Unsubscribe(cancel)
}

func (s *Store) WriteMerge(ctx context.Context, path string, fields map[string]interface{}) error {
	ref, err := s.doc(path)
	if err != nil {
		return err
	}
	_, err = ref.Set(ctx, convertFields(fields), firestore.MergeAll)
	return err
}

func (s *Store) AppendDocument(ctx context.Context, collection string, fields map[string]interface{}) (string, error) {
	ref, err := s.collection(collection)
	if err != nil {
		return "", err
	}
	doc, _, err := ref.Add(ctx, convertFields(fields))
	if err != nil {
		return "", err
	}
	return doc.ID, nil
}

func (s *Store) QueryOnce(ctx context.Context, q backend.Query) ([]*backend.Snapshot, error) {
	query, err := s.buildQuery(q)
	if err != nil {
		return nil, err
	}
	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return toSnapshots(q.Collection, docs), nil
}

func (s *Store) buildQuery(q backend.Query) (firestore.Query, error) {
	ref, err := s.collection(q.Collection)
	if err != nil {
		return firestore.Query{}, err
	}
	query := ref.Query
	for _, f := range q.Filters {
		query = query.Where(f.Field, string(f.Op), f.Value)
	}
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Direction == backend.Desc {
			dir = firestore.Desc
		}
		query = query.OrderBy(q.OrderBy, dir)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	return query, nil
}

// isStopped reports whether err only signals that the subscription was
// cancelled by its owner.
func isStopped(ctx context.Context, err error) bool {
	if errors.Is(err, iterator.Done) || ctx.Err() != nil {
		return true
	}
	return status.Code(err) == codes.Canceled
}

func convertFields(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if v == backend.ServerTimestamp {
			out[k] = firestore.ServerTimestamp
			continue
		}
		out[k] = v
	}
	return out
}

func toSnapshot(path string, snap *firestore.DocumentSnapshot) *backend.Snapshot {
	out := &backend.Snapshot{ID: snap.Ref.ID, Path: path}
	if snap.Exists() {
		out.Exists = true
		out.Data = snap.Data()
	}
	return out
}

func toSnapshots(collection string, docs []*firestore.DocumentSnapshot) []*backend.Snapshot {
	out := make([]*backend.Snapshot, 0, len(docs))
	for _, d := range docs {
		out = append(out, toSnapshot(collection+"/"+d.Ref.ID, d))
	}
	return out
}
