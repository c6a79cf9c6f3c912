package tenant

import "testing"

func TestResolveRepositoryFullName(t *testing.T) {
	key := Resolve([]byte(`{"repository": {"full_name": "octo/widgets"}}`))
	if key != "octo--widgets" {
		t.Fatalf("key = %q", key)
	}
}

func TestResolveWorkspaceID(t *testing.T) {
	key := Resolve([]byte(`{"workspace": {"id": "ws-42"}}`))
	if key != "ws-42" {
		t.Fatalf("key = %q", key)
	}
}

func TestResolveRepositoryWinsOverWorkspace(t *testing.T) {
	key := Resolve([]byte(`{"repository": {"full_name": "a/b"}, "workspace": {"id": "ws"}}`))
	if key != "a--b" {
		t.Fatalf("key = %q", key)
	}
}

func TestResolveFallbacks(t *testing.T) {
	cases := [][]byte{
		[]byte(`{}`),
		[]byte(`not json`),
		nil,
		[]byte(`{"repository": {}}`),
	}
	for _, body := range cases {
		if key := Resolve(body); key != DefaultKey {
			t.Fatalf("Resolve(%q) = %q, want %q", body, key, DefaultKey)
		}
	}
}

func TestResolveSanitizesHostileKeys(t *testing.T) {
	key := Resolve([]byte(`{"workspace": {"id": "../../etc/passwd"}}`))
	if key != ".._.._etc_passwd" {
		t.Fatalf("key = %q", key)
	}
}
