package models

import "testing"

func TestValidateKindPayloadCoupling(t *testing.T) {
	base := Message{Room: "general", SenderID: "u1", SenderName: "User One"}

	text := base
	text.Kind = KindText
	text.Body = "hello"
	if err := text.Validate(); err != nil {
		t.Fatalf("expected valid text message, got %v", err)
	}

	empty := base
	empty.Kind = KindText
	if err := empty.Validate(); err == nil {
		t.Fatalf("expected text message without body to fail validation")
	}

	img := base
	img.Kind = KindImage
	img.AttachmentURL = "http://example.com/u/a.png"
	if err := img.Validate(); err != nil {
		t.Fatalf("expected valid image message, got %v", err)
	}

	mixed := base
	mixed.Kind = KindImage
	mixed.AttachmentURL = "http://example.com/u/a.png"
	mixed.Body = "caption"
	if err := mixed.Validate(); err == nil {
		t.Fatalf("expected image message with body to fail validation")
	}

	ghost := base
	ghost.Kind = KindFile
	if err := ghost.Validate(); err == nil {
		t.Fatalf("expected file message without url to fail validation")
	}

	bogus := base
	bogus.Kind = Kind("sticker")
	bogus.Body = "x"
	if err := bogus.Validate(); err == nil {
		t.Fatalf("expected unknown kind to fail validation")
	}
}

func TestKindFromContentType(t *testing.T) {
	cases := []struct {
		ct   string
		want Kind
	}{
		{"image/png", KindImage},
		{"image/jpeg; charset=binary", KindImage},
		{"video/mp4", KindVideo},
		{"audio/ogg", KindAudio},
		{"application/pdf", KindFile},
		{"text/plain", KindFile},
		{"", KindFile},
	}
	for _, tc := range cases {
		if got := KindFromContentType(tc.ct); got != tc.want {
			t.Fatalf("KindFromContentType(%q) = %q, want %q", tc.ct, got, tc.want)
		}
	}
}

func TestOwnedBy(t *testing.T) {
	m := Message{Room: "general", SenderID: "u1", Kind: KindText, Body: "hi"}
	if !m.OwnedBy("u1") {
		t.Fatalf("expected message to be owned by its sender")
	}
	if m.OwnedBy("u2") {
		t.Fatalf("expected message not to be owned by another user")
	}
	ai := Message{Room: "general", SenderID: AISenderID, Kind: KindAI, Body: "hi"}
	if ai.OwnedBy(AISenderID) {
		t.Fatalf("AI sentinel must never be treated as own")
	}
}

func TestDisplayTextTotalOverKinds(t *testing.T) {
	kinds := []Kind{KindText, KindImage, KindVideo, KindAudio, KindFile, KindAI, Kind("sticker")}
	for _, k := range kinds {
		m := Message{Kind: k, Body: "b", AttachmentURL: "u"}
		if m.DisplayText() == "" {
			t.Fatalf("DisplayText must be non-empty for kind %q", k)
		}
	}
}

func TestChatRoomDerivation(t *testing.T) {
	admin := User{Role: "admin"}
	if got := admin.ChatRoom(); got != "room_admin" {
		t.Fatalf("admin room = %q, want room_admin", got)
	}
	citizen := User{Role: "citizen"}
	if got := citizen.ChatRoom(); got != "room_citizen" {
		t.Fatalf("citizen room = %q, want room_citizen", got)
	}
	none := User{}
	if got := none.ChatRoom(); got != DefaultRoom {
		t.Fatalf("roleless room = %q, want %q", got, DefaultRoom)
	}
}
