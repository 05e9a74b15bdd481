package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// FileKind distinguishes folders from regular files and images.
type FileKind string

const (
	KindFolder FileKind = "folder"
	KindFile   FileKind = "file"
	KindImage  FileKind = "image"
)

// ValidKind reports whether s names one of the allowed kinds.
func ValidKind(s string) bool {
	switch FileKind(s) {
	case KindFolder, KindFile, KindImage:
		return true
	}
	return false
}

// rootSentinel is the wire representation of "no parent; top level".
const rootSentinel = "0"

// ParentID is either the root of the hierarchy or a reference to a folder
// record. The zero value is root.
type ParentID struct {
	ref string
}

// RootParent is the top-level parent.
var RootParent = ParentID{}

// ParentRef returns a ParentID referencing the record with the given id.
// An empty id or the root sentinel yields root.
func ParentRef(id string) ParentID {
	if id == "" || id == rootSentinel {
		return ParentID{}
	}
	return ParentID{ref: id}
}

// IsRoot reports whether p is the top-level parent.
func (p ParentID) IsRoot() bool { return p.ref == "" }

// Ref returns the referenced record id; empty when root.
func (p ParentID) Ref() string { return p.ref }

func (p ParentID) String() string {
	if p.ref == "" {
		return rootSentinel
	}
	return p.ref
}

func (p ParentID) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *ParentID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*p = ParentRef(s)
	return nil
}

// User is an account holder. Immutable after registration.
type User struct {
	ID        string
	Email     string
	Digest    []byte
	Salt      []byte
	CreatedAt time.Time
}

// FileRecord is the metadata entity for a folder, file, or image.
// StorageKey is set iff Kind != folder and is never exposed to clients.
type FileRecord struct {
	ID         string
	OwnerID    string
	Name       string
	Kind       FileKind
	ParentID   ParentID
	IsPublic   bool
	StorageKey string
	CreatedAt  time.Time
}

// FileView is the client-facing shape of a FileRecord.
type FileView struct {
	ID       string   `json:"id"`
	UserID   string   `json:"userId"`
	Name     string   `json:"name"`
	Type     FileKind `json:"type"`
	IsPublic bool     `json:"isPublic"`
	ParentID ParentID `json:"parentId"`
}

// View strips internal-only fields before the record crosses the boundary.
func (f *FileRecord) View() FileView {
	return FileView{
		ID:       f.ID,
		UserID:   f.OwnerID,
		Name:     f.Name,
		Type:     f.Kind,
		IsPublic: f.IsPublic,
		ParentID: f.ParentID,
	}
}

// ThumbnailWidths are the fixed derived-asset sizes, largest first to match
// the order the worker schedules them.
var ThumbnailWidths = []int{500, 250, 100}

// SupportedWidth reports whether the size query value names a generated width.
func SupportedWidth(s string) bool {
	for _, w := range ThumbnailWidths {
		if s == fmt.Sprintf("%d", w) {
			return true
		}
	}
	return false
}

// DerivedKey names the derived asset for a storage key and width. The scheme
// is deterministic so regeneration overwrites the same object.
func DerivedKey(key string, width int) string {
	return fmt.Sprintf("%s_%d", key, width)
}

// ThumbnailJob is the unit of work handed to the worker pool.
type ThumbnailJob struct {
	FileID  string
	OwnerID string
}
