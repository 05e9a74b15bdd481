package service_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/PaulBabatuyi/filekeeper/internal/cache"
	"github.com/PaulBabatuyi/filekeeper/internal/database"
	"github.com/PaulBabatuyi/filekeeper/internal/errs"
	"github.com/PaulBabatuyi/filekeeper/internal/models"
	"github.com/PaulBabatuyi/filekeeper/internal/queue"
	"github.com/PaulBabatuyi/filekeeper/internal/service"
	"github.com/PaulBabatuyi/filekeeper/internal/session"
	"github.com/PaulBabatuyi/filekeeper/internal/storage"
)

type testEnv struct {
	svc      *service.Service
	store    *database.Memory
	sessions *session.Manager
	jobs     *queue.ChannelQueue
	content  *storage.FilesystemStorage
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	store := database.NewMemory()
	kv := cache.NewMemory()
	sessions := session.NewManager(kv, logger)
	content := storage.NewFilesystemStorage(t.TempDir())
	jobs := queue.NewChannelQueue(16)

	return &testEnv{
		svc:      service.New(store, store, sessions, content, jobs, kv, logger),
		store:    store,
		sessions: sessions,
		jobs:     jobs,
		content:  content,
	}
}

func (e *testEnv) register(t *testing.T, email, password string) (userID, token string) {
	t.Helper()
	ctx := context.Background()
	user, err := e.svc.CreateUser(ctx, email, password)
	require.NoError(t, err)
	token, err = e.svc.Login(ctx, email, password)
	require.NoError(t, err)
	return user.ID, token
}

func pngBase64(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestCreateUserThenLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.svc.CreateUser(ctx, "alice@example.com", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)

	token, err := env.svc.Login(ctx, "alice@example.com", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	me, err := env.svc.WhoAmI(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, me.ID)
}

func TestCreateUserValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.CreateUser(ctx, "", "secret")
	assert.EqualError(t, err, "Missing email")

	_, err = env.svc.CreateUser(ctx, "bob@example.com", "")
	assert.EqualError(t, err, "Missing password")

	_, err = env.svc.CreateUser(ctx, "bob@example.com", "secret")
	require.NoError(t, err)

	_, err = env.svc.CreateUser(ctx, "bob@example.com", "other")
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))
	assert.EqualError(t, err, "Already exist")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice@example.com", "secret")

	_, err := env.svc.Login(ctx, "alice@example.com", "wrong")
	assert.Equal(t, errs.ErrUnauthorized, err)

	_, err = env.svc.Login(ctx, "nobody@example.com", "secret")
	assert.Equal(t, errs.ErrUnauthorized, err)
}

func TestLogoutRevokesSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, token := env.register(t, "alice@example.com", "secret")

	require.NoError(t, env.svc.Logout(ctx, token))

	_, err := env.sessions.Resolve(ctx, token)
	assert.Equal(t, errs.ErrUnauthorized, err)

	// Second logout sees an unresolvable token.
	assert.Equal(t, errs.ErrUnauthorized, env.svc.Logout(ctx, token))
}

func TestUploadFieldValidationOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID, _ := env.register(t, "alice@example.com", "secret")

	_, err := env.svc.Upload(ctx, userID, service.UploadInput{Type: "file", Data: "aGk="})
	assert.EqualError(t, err, "Missing name")

	_, err = env.svc.Upload(ctx, userID, service.UploadInput{Name: "a", Type: "movie"})
	assert.EqualError(t, err, "Missing type")

	_, err = env.svc.Upload(ctx, userID, service.UploadInput{Name: "a", Type: "file"})
	assert.EqualError(t, err, "Missing data")

	// Folders need no data.
	_, err = env.svc.Upload(ctx, userID, service.UploadInput{Name: "docs", Type: "folder"})
	assert.NoError(t, err)
}

func TestUploadParentValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID, _ := env.register(t, "alice@example.com", "secret")

	_, err := env.svc.Upload(ctx, userID, service.UploadInput{
		Name: "a.txt", Type: "file", Data: "aGk=", ParentID: "missing",
	})
	assert.EqualError(t, err, "Parent not found")

	file, err := env.svc.Upload(ctx, userID, service.UploadInput{
		Name: "b.txt", Type: "file", Data: "aGk=",
	})
	require.NoError(t, err)

	_, err = env.svc.Upload(ctx, userID, service.UploadInput{
		Name: "c.txt", Type: "file", Data: "aGk=", ParentID: file.ID,
	})
	assert.EqualError(t, err, "Parent is not a folder")

	folder, err := env.svc.Upload(ctx, userID, service.UploadInput{
		Name: "docs", Type: "folder",
	})
	require.NoError(t, err)

	nested, err := env.svc.Upload(ctx, userID, service.UploadInput{
		Name: "d.txt", Type: "file", Data: "aGk=", ParentID: folder.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, folder.ID, nested.ParentID.Ref())
}

func TestUploadPersistsContentBeforeMetadata(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID, _ := env.register(t, "alice@example.com", "secret")

	view, err := env.svc.Upload(ctx, userID, service.UploadInput{
		Name: "note.txt", Type: "file",
		Data: base64.StdEncoding.EncodeToString([]byte("hello")),
	})
	require.NoError(t, err)

	record, err := env.store.FindFileByID(ctx, view.ID)
	require.NoError(t, err)
	require.NotEmpty(t, record.StorageKey)

	rc, err := env.content.Read(record.StorageKey)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestUploadFolderHasNoStorageKey(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID, _ := env.register(t, "alice@example.com", "secret")

	view, err := env.svc.Upload(ctx, userID, service.UploadInput{Name: "docs", Type: "folder"})
	require.NoError(t, err)

	record, err := env.store.FindFileByID(ctx, view.ID)
	require.NoError(t, err)
	assert.Empty(t, record.StorageKey)
}

func TestUploadImageEnqueuesThumbnailJob(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID, _ := env.register(t, "alice@example.com", "secret")

	view, err := env.svc.Upload(ctx, userID, service.UploadInput{
		Name: "pic.png", Type: "image", Data: pngBase64(t),
	})
	require.NoError(t, err)

	select {
	case job := <-env.jobs.Jobs():
		assert.Equal(t, models.ThumbnailJob{FileID: view.ID, OwnerID: userID}, job)
	default:
		t.Fatal("expected a queued thumbnail job")
	}
}

func TestUploadNonImageDoesNotEnqueue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID, _ := env.register(t, "alice@example.com", "secret")

	_, err := env.svc.Upload(ctx, userID, service.UploadInput{
		Name: "a.txt", Type: "file", Data: "aGk=",
	})
	require.NoError(t, err)

	select {
	case <-env.jobs.Jobs():
		t.Fatal("file upload must not enqueue a thumbnail job")
	default:
	}
}

func TestConcurrentUploadsWithSameName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID, _ := env.register(t, "alice@example.com", "secret")

	const n = 8
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			view, err := env.svc.Upload(ctx, userID, service.UploadInput{
				Name: "same.txt", Type: "file", Data: "aGk=",
			})
			if assert.NoError(t, err) {
				ids[i] = view.ID
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestGetFileMetadataScopesToOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, _ := env.register(t, "alice@example.com", "secret")
	bob, _ := env.register(t, "bob@example.com", "secret")

	view, err := env.svc.Upload(ctx, alice, service.UploadInput{
		Name: "a.txt", Type: "file", Data: "aGk=",
	})
	require.NoError(t, err)

	got, err := env.svc.GetFileMetadata(ctx, alice, view.ID)
	require.NoError(t, err)
	assert.Equal(t, view.ID, got.ID)

	_, err = env.svc.GetFileMetadata(ctx, bob, view.ID)
	assert.Equal(t, errs.ErrNotFound, err)
}

func TestListFilesPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID, _ := env.register(t, "alice@example.com", "secret")

	for i := 0; i < service.PageSize+5; i++ {
		_, err := env.svc.Upload(ctx, userID, service.UploadInput{
			Name: fmt.Sprintf("f%02d.txt", i), Type: "file", Data: "aGk=",
		})
		require.NoError(t, err)
	}

	page0, err := env.svc.ListFiles(ctx, userID, models.RootParent, 0)
	require.NoError(t, err)
	assert.Len(t, page0, service.PageSize)
	// Insertion order.
	assert.Equal(t, "f00.txt", page0[0].Name)

	page1, err := env.svc.ListFiles(ctx, userID, models.RootParent, 1)
	require.NoError(t, err)
	assert.Len(t, page1, 5)

	page2, err := env.svc.ListFiles(ctx, userID, models.RootParent, 2)
	require.NoError(t, err)
	assert.Empty(t, page2)
}

func TestSetVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, _ := env.register(t, "alice@example.com", "secret")
	bob, _ := env.register(t, "bob@example.com", "secret")

	view, err := env.svc.Upload(ctx, alice, service.UploadInput{
		Name: "a.txt", Type: "file", Data: "aGk=",
	})
	require.NoError(t, err)
	assert.False(t, view.IsPublic)

	published, err := env.svc.SetVisibility(ctx, alice, view.ID, true)
	require.NoError(t, err)
	assert.True(t, published.IsPublic)

	_, err = env.svc.SetVisibility(ctx, bob, view.ID, false)
	assert.Equal(t, errs.ErrNotFound, err)
}

func TestGetContentAccessControl(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, aliceToken := env.register(t, "alice@example.com", "secret")
	_, bobToken := env.register(t, "bob@example.com", "secret")

	view, err := env.svc.Upload(ctx, alice, service.UploadInput{
		Name: "note.txt", Type: "file",
		Data: base64.StdEncoding.EncodeToString([]byte("private")),
	})
	require.NoError(t, err)

	// Owner reads private content.
	rc, mimeType, err := env.svc.GetContent(ctx, view.ID, "", aliceToken)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, []byte("private"), data)
	assert.Contains(t, mimeType, "text/plain")

	// Non-owner and anonymous both collapse to NotFound, never Unauthorized.
	_, _, err = env.svc.GetContent(ctx, view.ID, "", bobToken)
	assert.Equal(t, errs.ErrNotFound, err)
	_, _, err = env.svc.GetContent(ctx, view.ID, "", "")
	assert.Equal(t, errs.ErrNotFound, err)

	// Publishing opens it up.
	_, err = env.svc.SetVisibility(ctx, alice, view.ID, true)
	require.NoError(t, err)
	rc, _, err = env.svc.GetContent(ctx, view.ID, "", "")
	require.NoError(t, err)
	rc.Close()
}

func TestGetContentEdgeCases(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, token := env.register(t, "alice@example.com", "secret")

	_, _, err := env.svc.GetContent(ctx, "missing", "", token)
	assert.Equal(t, errs.ErrNotFound, err)

	folder, err := env.svc.Upload(ctx, alice, service.UploadInput{Name: "docs", Type: "folder"})
	require.NoError(t, err)
	_, _, err = env.svc.GetContent(ctx, folder.ID, "", token)
	assert.EqualError(t, err, "A folder doesn't have content")

	pic, err := env.svc.Upload(ctx, alice, service.UploadInput{
		Name: "pic.png", Type: "image", Data: pngBase64(t),
	})
	require.NoError(t, err)

	_, _, err = env.svc.GetContent(ctx, pic.ID, "64", token)
	assert.EqualError(t, err, "Invalid size")

	// Valid size but the worker has not run yet.
	_, _, err = env.svc.GetContent(ctx, pic.ID, "100", token)
	assert.Equal(t, errs.ErrNotFound, err)

	rc, mimeType, err := env.svc.GetContent(ctx, pic.ID, "", token)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "image/png", mimeType)
}

func TestUploadRejectsInvalidBase64(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID, _ := env.register(t, "alice@example.com", "secret")

	_, err := env.svc.Upload(ctx, userID, service.UploadInput{
		Name: "a.txt", Type: "file", Data: "%%%not-base64%%%",
	})
	assert.EqualError(t, err, "Invalid data")
}

func TestStatusAndStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID, _ := env.register(t, "alice@example.com", "secret")
	_, err := env.svc.Upload(ctx, userID, service.UploadInput{Name: "docs", Type: "folder"})
	require.NoError(t, err)

	cacheAlive, dbAlive := env.svc.Status(ctx)
	assert.True(t, cacheAlive)
	assert.True(t, dbAlive)

	users, files, err := env.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), users)
	assert.Equal(t, int64(1), files)
}
