package service

import (
	"errors"
	"testing"

	"sitebot/internal/model"
	"sitebot/internal/session"
)

func TestAdminURL(t *testing.T) {
	tests := []struct {
		tenant string
		want   string
		ok     bool
	}{
		{"contoso.onmicrosoft.com", "https://contoso-admin.sharepoint.com", true},
		{"contoso", "https://contoso-admin.sharepoint.com", true},
		{"my-org.sharepoint.com", "https://my-org-admin.sharepoint.com", true},
		{"", "", false},
		{".onmicrosoft.com", "", false},
		{"bad host.onmicrosoft.com", "", false},
		{"-lead.onmicrosoft.com", "", false},
	}
	for _, tt := range tests {
		got, err := AdminURL(tt.tenant, "-admin.sharepoint.com")
		if tt.ok {
			if err != nil || got != tt.want {
				t.Errorf("AdminURL(%q) = %q, %v; want %q", tt.tenant, got, err, tt.want)
			}
			continue
		}
		if !errors.Is(err, model.ErrInvalidTenant) {
			t.Errorf("AdminURL(%q) err = %v, want ErrInvalidTenant", tt.tenant, err)
		}
	}
}

func TestNewAuthGate_ConfigErrors(t *testing.T) {
	connect := func(string, string) Directory { return &fakeDirectory{} }
	if _, err := NewAuthGate("", "-admin.sharepoint.com", "res", connect); !errors.Is(err, model.ErrInvalidTenant) {
		t.Errorf("empty tenant err = %v", err)
	}
	if _, err := NewAuthGate("contoso.onmicrosoft.com", "-admin.sharepoint.com", "", connect); err == nil {
		t.Error("expected error for empty resource id")
	}
}

func TestAdmit(t *testing.T) {
	var gotURL, gotToken string
	dir := &fakeDirectory{}
	gate, err := NewAuthGate("contoso.onmicrosoft.com", "-admin.sharepoint.com", "res", func(u, tok string) Directory {
		gotURL, gotToken = u, tok
		return dir
	})
	if err != nil {
		t.Fatalf("NewAuthGate: %v", err)
	}

	s := session.New(model.Address{ConversationID: "c"})
	if adm := gate.Admit(s); adm.Admitted || adm.Directory != nil {
		t.Errorf("unauthenticated session admitted: %+v", adm)
	}

	s.BeginAuth("n")
	if err := s.CompleteAuth("n", "other-resource", "tok"); err != nil {
		t.Fatal(err)
	}
	if adm := gate.Admit(s); adm.Admitted {
		t.Error("token for another resource must not admit")
	}

	s.Resource = "res"
	adm := gate.Admit(s)
	if !adm.Admitted || adm.Directory != dir {
		t.Fatalf("Admit() = %+v", adm)
	}
	if gotURL != "https://contoso-admin.sharepoint.com" || gotToken != "tok" {
		t.Errorf("connect(%q, %q)", gotURL, gotToken)
	}
}
