package docstore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore maps collections and documents one-to-one onto Firestore.
type FirestoreStore struct {
	client *firestore.Client
	logger *zap.Logger
}

// NewFirestore connects through the Firebase Admin SDK. An empty
// credentialsFile falls back to application default credentials.
func NewFirestore(ctx context.Context, projectID, credentialsFile string, logger *zap.Logger) (*FirestoreStore, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return &FirestoreStore{client: client, logger: logger}, nil
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := checkKey(collection, id); err != nil {
		return Document{}, err
	}
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return fromSnapshot(snap), nil
}

func (s *FirestoreStore) List(ctx context.Context, collection string) ([]Document, error) {
	if collection == "" {
		return nil, ErrInvalidKey
	}
	snaps, err := s.client.Collection(collection).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	docs := make([]Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, fromSnapshot(snap))
	}
	return docs, nil
}

func (s *FirestoreStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	if err := checkKey(collection, id); err != nil {
		return err
	}
	if data == nil {
		data = map[string]any{}
	}
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, data); err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	if err := checkKey(collection, id); err != nil {
		return err
	}
	_, err := s.client.Collection(collection).Doc(id).Delete(ctx, firestore.Exists)
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// Watch opens a snapshot listener. The listener's first snapshot describes
// the existing documents and is skipped.
func (s *FirestoreStore) Watch(ctx context.Context, collection string) (<-chan Change, error) {
	if collection == "" {
		return nil, ErrInvalidKey
	}
	it := s.client.Collection(collection).Snapshots(ctx)
	out := make(chan Change, watchBuffer)

	go func() {
		defer close(out)
		defer it.Stop()

		initial := true
		for {
			snap, err := it.Next()
			if err != nil {
				if ctx.Err() == nil && status.Code(err) != codes.Canceled && !errors.Is(err, context.Canceled) {
					s.logger.Error("firestore listener stopped",
						zap.String("collection", collection), zap.Error(err))
				}
				return
			}
			if initial {
				initial = false
				continue
			}
			for _, dc := range snap.Changes {
				change := Change{Collection: collection, ID: dc.Doc.Ref.ID}
				switch dc.Kind {
				case firestore.DocumentAdded:
					change.Kind = Added
					change.Doc = fromSnapshot(dc.Doc)
				case firestore.DocumentModified:
					change.Kind = Modified
					change.Doc = fromSnapshot(dc.Doc)
				case firestore.DocumentRemoved:
					change.Kind = Removed
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				default:
					s.logger.Warn("dropping change for slow watcher",
						zap.String("collection", collection), zap.String("id", change.ID))
				}
			}
		}
	}()
	return out, nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func fromSnapshot(snap *firestore.DocumentSnapshot) Document {
	return Document{
		ID:        snap.Ref.ID,
		Data:      snap.Data(),
		UpdatedAt: snap.UpdateTime,
	}
}
