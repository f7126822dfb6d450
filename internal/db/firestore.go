package db

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"reviewly-backend-go/internal/config"
)

// Firebase holds the clients created from one Firebase app.
type Firebase struct {
	Firestore *firestore.Client
	Auth      *auth.Client
}

// Close releases the Firestore connection.
func (f *Firebase) Close() error {
	if f == nil || f.Firestore == nil {
		return nil
	}
	return f.Firestore.Close()
}

// InitFirebase initializes the Firebase Admin SDK and returns Firestore and Auth clients.
// Credentials come from a file path, a base64 service account JSON, or ADC, in that order.
func InitFirebase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Firebase, error) {
	if cfg == nil {
		return nil, errors.New("InitFirebase: config cannot be nil")
	}

	var opts []option.ClientOption
	switch {
	case cfg.GoogleApplicationCredentials != "":
		logger.Info("Initializing Firebase with credentials file", zap.String("path", cfg.GoogleApplicationCredentials))
		if _, err := os.Stat(cfg.GoogleApplicationCredentials); os.IsNotExist(err) {
			logger.Warn("Credentials file does not exist, falling back to ADC resolution", zap.String("path", cfg.GoogleApplicationCredentials))
		}
		opts = append(opts, option.WithCredentialsFile(cfg.GoogleApplicationCredentials))
	case cfg.FirebaseServiceAccountJSONBase64 != "":
		logger.Info("Initializing Firebase with base64 encoded service account JSON")
		decoded, err := base64.StdEncoding.DecodeString(cfg.FirebaseServiceAccountJSONBase64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode FIREBASE_SERVICE_ACCOUNT_JSON_BASE64: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(decoded))
	default:
		logger.Info("Initializing Firebase using Application Default Credentials")
	}

	var appConfig *firebase.Config
	if cfg.FirebaseProjectID != "" {
		appConfig = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}

	app, err := firebase.NewApp(ctx, appConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}

	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("app.Firestore: %w", err)
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		fs.Close()
		return nil, fmt.Errorf("app.Auth: %w", err)
	}

	logger.Info("Firebase clients initialized", zap.String("projectId", cfg.FirebaseProjectID))
	return &Firebase{Firestore: fs, Auth: authClient}, nil
}

// NewFirestoreStore wires every repository to one Firestore client.
func NewFirestoreStore(client *firestore.Client) *Store {
	return &Store{
		Businesses: NewFirestoreBusinessRepository(client),
		Slugs:      NewFirestoreSlugRepository(client),
		Reviews:    NewFirestoreReviewRepository(client),
		Payments:   NewFirestorePaymentRepository(client),
		ShareLinks: NewFirestoreShareLinkRepository(client),
		Support:    NewFirestoreSupportRepository(client),
		Settings:   NewFirestoreSettingsRepository(client),
		Audit:      NewFirestoreAuditRepository(client),
	}
}

// notFound maps a Firestore NotFound status to ErrNotFound.
func notFound(err error, what, id string) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%s '%s' not found: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("failed to get %s '%s': %w", what, id, err)
}

// collect decodes every document of a query, setting each ID from its reference.
func collect[T any](iter *firestore.DocumentIterator, setID func(*T, string)) ([]*T, error) {
	defer iter.Stop()
	var out []*T
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		var v T
		if err := doc.DataTo(&v); err != nil {
			return nil, fmt.Errorf("failed to decode document '%s': %w", doc.Ref.ID, err)
		}
		setID(&v, doc.Ref.ID)
		out = append(out, &v)
	}
	return out, nil
}
