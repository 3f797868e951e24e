package Directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"Lulan/Models"
)

var _ Directory = (*Firebase)(nil)

// FirebaseConfig points at the hosted project.
type FirebaseConfig struct {
	CredentialsFile string
	ProjectID       string
	// APIKey is the web API key used for password and IDP sign-in.
	APIKey string
}

// Firebase is the hosted Directory: admin auth for account lifecycle, the
// identity toolkit REST API for credential checks and Firestore for
// documents and realtime snapshots.
type Firebase struct {
	App       *firebase.App
	Auth      *auth.Client
	Firestore *firestore.Client
	Toolkit   *identitytoolkit.Service
}

func NewFirebase(ctx context.Context, cfg FirebaseConfig) (*Firebase, error) {
	opt := option.WithCredentialsFile(cfg.CredentialsFile)

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %v", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Auth client: %v", err)
	}

	store, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Firestore client: %v", err)
	}

	toolkit, err := identitytoolkit.NewService(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("error getting Identity Toolkit service: %v", err)
	}

	log.Println("Firebase initialized successfully")
	return &Firebase{App: app, Auth: authClient, Firestore: store, Toolkit: toolkit}, nil
}

func (f *Firebase) Close() error {
	return f.Firestore.Close()
}

func (f *Firebase) SignIn(ctx context.Context, email, password string) (Models.Identity, error) {
	resp, err := f.Toolkit.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return Models.Identity{}, providerError(err)
	}
	return Models.Identity{
		UID:          resp.LocalId,
		Email:        resp.Email,
		DisplayName:  resp.DisplayName,
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

func (f *Firebase) SignUp(ctx context.Context, email, password, displayName string) (Models.Identity, error) {
	params := (&auth.UserToCreate{}).Email(email).Password(password)
	if displayName != "" {
		params = params.DisplayName(displayName)
	}
	if _, err := f.Auth.CreateUser(ctx, params); err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return Models.Identity{}, ErrEmailExists
		}
		return Models.Identity{}, err
	}
	return f.SignIn(ctx, email, password)
}

func (f *Firebase) SignInWithIDP(ctx context.Context, providerID, idToken string) (Models.Identity, error) {
	body := url.Values{"id_token": {idToken}, "providerId": {providerID}}
	resp, err := f.Toolkit.Relyingparty.VerifyAssertion(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyAssertionRequest{
		PostBody:          body.Encode(),
		RequestUri:        "http://localhost",
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return Models.Identity{}, providerError(err)
	}
	if resp.ErrorMessage != "" {
		return Models.Identity{}, errors.New(resp.ErrorMessage)
	}
	return Models.Identity{
		UID:          resp.LocalId,
		Email:        resp.Email,
		DisplayName:  resp.DisplayName,
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

// SignOut revokes the refresh tokens issued to the identity.
func (f *Firebase) SignOut(ctx context.Context, identity Models.Identity) error {
	return f.Auth.RevokeRefreshTokens(ctx, identity.UID)
}

func (f *Firebase) DeleteAccount(ctx context.Context, identity Models.Identity) error {
	return f.Auth.DeleteUser(ctx, identity.UID)
}

func (f *Firebase) doc(path string) (*firestore.DocumentRef, error) {
	ref := f.Firestore.Doc(path)
	if ref == nil {
		return nil, fmt.Errorf("invalid document path %q", path)
	}
	return ref, nil
}

func (f *Firebase) collection(path string) (*firestore.CollectionRef, error) {
	ref := f.Firestore.Collection(path)
	if ref == nil {
		return nil, fmt.Errorf("invalid collection path %q", path)
	}
	return ref, nil
}

func (f *Firebase) Get(ctx context.Context, path string) (Document, error) {
	ref, err := f.doc(path)
	if err != nil {
		return Document{}, err
	}
	snap, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Document{}, fmt.Errorf("%s: %w", path, Models.ErrNotFound)
	}
	if err != nil {
		return Document{}, err
	}
	return toDocument(path, snap)
}

func (f *Firebase) List(ctx context.Context, collection string) ([]Document, error) {
	ref, err := f.collection(collection)
	if err != nil {
		return nil, err
	}
	snaps, err := ref.Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return toDocuments(collection, snaps)
}

func (f *Firebase) Set(ctx context.Context, path string, value interface{}) error {
	ref, err := f.doc(path)
	if err != nil {
		return err
	}
	data, err := toMap(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	_, err = ref.Set(ctx, data)
	return err
}

func (f *Firebase) Delete(ctx context.Context, path string) error {
	ref, err := f.doc(path)
	if err != nil {
		return err
	}
	_, err = ref.Delete(ctx)
	return err
}

// Subscribe runs a snapshot iterator on its own goroutine. The returned
// Unsubscribe cancels the iterator and waits for the goroutine to exit.
func (f *Firebase) Subscribe(ctx context.Context, path string, onChange func(Snapshot)) (Unsubscribe, error) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	if IsCollection(path) {
		ref, err := f.collection(path)
		if err != nil {
			cancel()
			return nil, err
		}
		it := ref.Snapshots(ctx)
		go func() {
			defer close(done)
			defer it.Stop()
			for {
				qs, err := it.Next()
				if err != nil {
					logListenerExit(ctx, path, err)
					return
				}
				snaps, err := qs.Documents.GetAll()
				if err != nil {
					log.Printf("Error reading snapshot of %s: %v", path, err)
					continue
				}
				docs, err := toDocuments(path, snaps)
				if err != nil {
					log.Printf("Error decoding snapshot of %s: %v", path, err)
					continue
				}
				if ctx.Err() != nil {
					return
				}
				onChange(Snapshot{Path: path, Exists: len(docs) > 0, Docs: docs})
			}
		}()
	} else {
		ref, err := f.doc(path)
		if err != nil {
			cancel()
			return nil, err
		}
		it := ref.Snapshots(ctx)
		go func() {
			defer close(done)
			defer it.Stop()
			for {
				snap, err := it.Next()
				if err != nil {
					logListenerExit(ctx, path, err)
					return
				}
				snapshot := Snapshot{Path: path}
				if snap.Exists() {
					document, err := toDocument(path, snap)
					if err != nil {
						log.Printf("Error decoding snapshot of %s: %v", path, err)
						continue
					}
					snapshot.Exists = true
					snapshot.Docs = []Document{document}
				}
				if ctx.Err() != nil {
					return
				}
				onChange(snapshot)
			}
		}()
	}

	return func() {
		cancel()
		<-done
	}, nil
}

func logListenerExit(ctx context.Context, path string, err error) {
	if ctx.Err() != nil || status.Code(err) == codes.Canceled {
		return
	}
	log.Printf("Listener on %s stopped: %v", path, err)
}

func toDocument(path string, snap *firestore.DocumentSnapshot) (Document, error) {
	data, err := json.Marshal(snap.Data())
	if err != nil {
		return Document{}, err
	}
	return Document{ID: snap.Ref.ID, Path: path, Data: data}, nil
}

func toDocuments(collection string, snaps []*firestore.DocumentSnapshot) ([]Document, error) {
	docs := make([]Document, 0, len(snaps))
	for _, snap := range snaps {
		doc, err := toDocument(collection+"/"+snap.Ref.ID, snap)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// toMap round-trips value through JSON so documents carry the same field
// names in both directory implementations.
func toMap(value interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// providerError maps identity toolkit rejections onto the credential error.
func providerError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case strings.HasPrefix(apiErr.Message, "EMAIL_NOT_FOUND"),
			strings.HasPrefix(apiErr.Message, "INVALID_PASSWORD"),
			strings.HasPrefix(apiErr.Message, "INVALID_LOGIN_CREDENTIALS"),
			strings.HasPrefix(apiErr.Message, "INVALID_IDP_RESPONSE"):
			return fmt.Errorf("%w: %s", Models.ErrInvalidCredentials, apiErr.Message)
		case apiErr.Message != "":
			return errors.New(apiErr.Message)
		}
	}
	return err
}
