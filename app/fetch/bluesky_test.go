package fetch

import "testing"

func TestPostURL(t *testing.T) {
	got := postURL("osintreports.bsky.social", "at://did:plc:abc123/app.bsky.feed.post/3kxyz")
	want := "https://bsky.app/profile/osintreports.bsky.social/post/3kxyz"
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestPostID_DistinctAcrossPlatforms(t *testing.T) {
	a := postID("bluesky", "same-key")
	b := postID("mastodon", "same-key")
	if a == b {
		t.Errorf("Identical keys on different platforms must not collide: %s", a)
	}
	if a != postID("bluesky", "same-key") {
		t.Errorf("postID must be deterministic")
	}
}
