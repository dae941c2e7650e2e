package bot

import (
	"testing"
)

func TestCreateMessage(t *testing.T) {
	b, api, _ := newTestBot(t, &mockSource{})

	id, err := b.CreateMessage(-100, "status text", "TF0231")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a message ID")
	}
	if !api.sent[0].Markup {
		t.Error("message with an operation ID should carry the subscription buttons")
	}

	content, err := b.MessageContent(-100, id)
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	if content != "status text" {
		t.Errorf("content = %q, want %q", content, "status text")
	}
}

func TestCreateMessageWithoutButtons(t *testing.T) {
	b, api, _ := newTestBot(t, &mockSource{})

	if _, err := b.CreateMessage(-100, "ping text", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if api.sent[0].Markup {
		t.Error("ping messages must not carry the subscription buttons")
	}
}

func TestEditMessageUpdatesContent(t *testing.T) {
	b, _, _ := newTestBot(t, &mockSource{})

	id, err := b.CreateMessage(-100, "before", "TF0231")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := b.EditMessage(-100, id, "after", "TF0231"); err != nil {
		t.Fatalf("edit: %v", err)
	}

	content, err := b.MessageContent(-100, id)
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	if content != "after" {
		t.Errorf("content = %q, want %q", content, "after")
	}
}

func TestDeleteMessageForgetsContent(t *testing.T) {
	b, api, _ := newTestBot(t, &mockSource{})

	id, err := b.CreateMessage(-100, "short lived", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := b.DeleteMessage(-100, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(api.deletes) != 1 || api.deletes[0] != id {
		t.Errorf("deletes = %v, want [%d]", api.deletes, id)
	}

	if _, err := b.MessageContent(-100, id); err == nil {
		t.Error("expected unknown content after deletion")
	}
}

func TestMessageContentUnknown(t *testing.T) {
	b, _, _ := newTestBot(t, &mockSource{})

	if _, err := b.MessageContent(-100, 9999); err == nil {
		t.Error("expected error for a message this process never sent")
	}
}
