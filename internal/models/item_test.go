package models

import "testing"

func TestFolderValidity(t *testing.T) {
	for _, f := range []Folder{FolderInbox, FolderSent, FolderSnoozed, FolderTrash} {
		if !ValidListFolder(f) {
			t.Errorf("%s should be a valid list view", f)
		}
		if !f.Storable() {
			t.Errorf("%s should be storable", f)
		}
	}
	if !ValidListFolder(FolderStarred) {
		t.Error("starred is a valid list view")
	}
	if FolderStarred.Storable() {
		t.Error("starred must never be stored as a folder")
	}
	if ValidListFolder("archive") {
		t.Error("unknown folders are rejected")
	}
}
