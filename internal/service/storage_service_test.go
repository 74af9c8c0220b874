package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func newOfflineStorage(t *testing.T) *MinIOStorageService {
	t.Helper()
	s, err := NewMinIOStorageService("127.0.0.1:1", "key", "secret", "avatars", false)
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}
	return s
}

func TestUploadAvatarValidatesBeforeConnecting(t *testing.T) {
	s := newOfflineStorage(t)
	ctx := context.Background()

	if _, err := s.UploadAvatar(ctx, "u1", strings.NewReader("x"), MaxAvatarSize+1); !errors.Is(err, ErrFileTooBig) {
		t.Fatalf("expected ErrFileTooBig, got %v", err)
	}
	if _, err := s.UploadAvatar(ctx, "u1", strings.NewReader("just some text"), 14); !errors.Is(err, ErrInvalidFileType) {
		t.Fatalf("expected ErrInvalidFileType, got %v", err)
	}
}

func TestSniffAvatarReplaysBytes(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 600)...)
	contentType, body, err := sniffAvatar(bytes.NewReader(png))
	if err != nil {
		t.Fatalf("sniff: %v", err)
	}
	if contentType != "image/png" {
		t.Fatalf("expected image/png, got %s", contentType)
	}
	var out bytes.Buffer
	if _, err := out.ReadFrom(body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !bytes.Equal(out.Bytes(), png) {
		t.Fatalf("sniffed reader lost bytes: %d != %d", out.Len(), len(png))
	}
}

func TestDeleteAvatarEnforcesOwnership(t *testing.T) {
	s := newOfflineStorage(t)
	ctx := context.Background()

	if err := s.DeleteAvatar(ctx, "u1", ""); err != nil {
		t.Fatalf("empty key should be a no-op, got %v", err)
	}
	if err := s.DeleteAvatar(ctx, "u1", "avatars/user-u2/a.png"); !errors.Is(err, ErrUnauthorizedAccess) {
		t.Fatalf("expected ErrUnauthorizedAccess for foreign key, got %v", err)
	}
	if err := s.DeleteAvatar(ctx, "u1", "avatars/user-u1/../user-u2/a.png"); !errors.Is(err, ErrUnauthorizedAccess) {
		t.Fatalf("expected ErrUnauthorizedAccess for traversal, got %v", err)
	}
	if _, err := s.GenerateAvatarURL(ctx, " "); !errors.Is(err, ErrURLGenerationFailed) {
		t.Fatalf("expected ErrURLGenerationFailed, got %v", err)
	}
}
