package gate

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
)

func TestMD5Hex(t *testing.T) {
	if got := MD5Hex("password"); got != "5f4dcc3b5aa765d61d8327deb882cf99" {
		t.Errorf("MD5Hex = %s", got)
	}
}

func TestResolveCredential_Precedence(t *testing.T) {
	local := "0123456789ABCDEF0123456789ABCDEF"
	remote := models.Settings{models.SettingPassword: "password"}

	cases := []struct {
		name     string
		local    string
		settings models.Settings
		want     string
		wantErr  error
	}{
		{"local and remote", local, remote, "0123456789abcdef0123456789abcdef", nil},
		{"local only", local, models.Settings{}, "0123456789abcdef0123456789abcdef", nil},
		{"remote only", "", remote, "5f4dcc3b5aa765d61d8327deb882cf99", nil},
		{"neither", "", models.Settings{}, "", apperr.ErrGateUnavailable},
		{"blank remote", "  ", models.Settings{models.SettingPassword: " "}, "", apperr.ErrGateUnavailable},
		{"nil settings", "", nil, "", apperr.ErrGateUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveCredential(tc.local, tc.settings, MD5Hex)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("credential = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResolveCredential_NoDigest(t *testing.T) {
	_, err := ResolveCredential("", models.Settings{models.SettingPassword: "pw"}, nil)
	if !errors.Is(err, apperr.ErrGateUnavailable) {
		t.Errorf("err = %v", err)
	}
	if got, err := ResolveCredential("abc", nil, nil); err != nil || got != "abc" {
		t.Errorf("local hash needs no digest: %q, %v", got, err)
	}
}

func TestGate_CheckTransitions(t *testing.T) {
	ctx := context.Background()
	g := New(KindProject)
	if err := g.Configure(ctx, "", models.Settings{models.SettingPassword: "open sesame"}); err != nil {
		t.Fatal(err)
	}
	if g.State() != Locked {
		t.Fatalf("initial state = %v", g.State())
	}

	if err := g.Check(ctx, "wrong"); !errors.Is(err, apperr.ErrGateDenied) {
		t.Errorf("wrong candidate err = %v", err)
	}
	if g.State() != Locked {
		t.Errorf("state after denial = %v", g.State())
	}
	if err := g.Check(ctx, ""); !errors.Is(err, apperr.ErrGateDenied) {
		t.Errorf("empty candidate err = %v", err)
	}

	if err := g.Check(ctx, "open sesame"); err != nil {
		t.Fatalf("correct candidate: %v", err)
	}
	if !g.Authorized() {
		t.Error("gate should be authorized")
	}
	if err := g.Check(ctx, "wrong"); err != nil {
		t.Errorf("authorized gate must stay open, got %v", err)
	}
	if !g.Authorized() {
		t.Error("authorized gate was downgraded")
	}
}

func TestGate_LocalHashWins(t *testing.T) {
	ctx := context.Background()
	g := New(KindProject)
	_ = g.Configure(ctx, MD5Hex("local"), models.Settings{models.SettingPassword: "remote"})

	if err := g.Check(ctx, "remote"); !errors.Is(err, apperr.ErrGateDenied) {
		t.Errorf("remote plaintext must not open the gate: %v", err)
	}
	if err := g.Check(ctx, "local"); err != nil {
		t.Errorf("local credential: %v", err)
	}
}

func TestGate_UnavailableFailsClosed(t *testing.T) {
	ctx := context.Background()
	g := New(KindProject)
	if err := g.Configure(ctx, "", models.Settings{}); !errors.Is(err, apperr.ErrGateUnavailable) {
		t.Fatalf("Configure err = %v", err)
	}
	for _, c := range []string{"", "anything", "password"} {
		if err := g.Check(ctx, c); !errors.Is(err, apperr.ErrGateUnavailable) {
			t.Errorf("Check(%q) = %v, want ErrGateUnavailable", c, err)
		}
	}
	if g.Authorized() || g.Available() {
		t.Error("unavailable gate must stay locked")
	}

	nd := New(KindProject, WithDigest(nil))
	_ = nd.Configure(ctx, "abc", nil)
	if err := nd.Check(ctx, "abc"); !errors.Is(err, apperr.ErrGateUnavailable) {
		t.Errorf("missing digest err = %v", err)
	}
}

func TestGate_VaultFlagPersisted(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessions()
	settings := models.Settings{models.SettingPassword: "pw"}

	g := New(KindVault, WithSessionStore(store, "s1"))
	_ = g.Configure(ctx, "", settings)
	if err := g.Check(ctx, "pw"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := store.Flag(ctx, "s1", VaultFlag); !ok {
		t.Fatal("vault flag not persisted")
	}

	reloaded := New(KindVault, WithSessionStore(store, "s1"))
	_ = reloaded.Configure(ctx, "", settings)
	if !reloaded.Authorized() {
		t.Error("reloaded vault gate should restore authorization")
	}

	other := New(KindVault, WithSessionStore(store, "s2"))
	_ = other.Configure(ctx, "", settings)
	if other.Authorized() {
		t.Error("flag leaked across sessions")
	}

	project := New(KindProject, WithSessionStore(store, "s1"))
	_ = project.Configure(ctx, "", settings)
	if project.Authorized() {
		t.Error("project gate must not read the vault flag")
	}

	_ = store.Clear(ctx, "s1")
	cleared := New(KindVault, WithSessionStore(store, "s1"))
	_ = cleared.Configure(ctx, "", settings)
	if cleared.Authorized() {
		t.Error("flag survived session end")
	}
}

func TestGate_ConcurrentChecksNeverDowngrade(t *testing.T) {
	ctx := context.Background()
	g := New(KindProject)
	_ = g.Configure(ctx, "", models.Settings{models.SettingPassword: "pw"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = g.Check(ctx, "pw")
			} else {
				_ = g.Check(ctx, "nope")
			}
		}(i)
	}
	wg.Wait()
	if !g.Authorized() {
		t.Error("a successful check was lost")
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind("Vault"); err != nil || k != KindVault {
		t.Errorf("ParseKind(Vault) = %q, %v", k, err)
	}
	if _, err := ParseKind("admin"); err == nil {
		t.Error("expected error for unknown kind")
	}
}
