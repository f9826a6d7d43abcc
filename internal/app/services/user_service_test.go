package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SF-ND-NEW/miniapp-backend/internal/app/models"
	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/apperrors"
)

func newUserService(users *fakeUserStore, adminOpenIDs ...string) *userService {
	allow := map[string]bool{}
	for _, id := range adminOpenIDs {
		allow[id] = true
	}
	return &userService{
		users:         users,
		isAdminOpenID: func(openid string) bool { return allow[openid] },
		now:           func() time.Time { return fixedNow },
	}
}

func TestBind(t *testing.T) {
	enrolled := func(openid *string) *fakeUserStore {
		return &fakeUserStore{
			byStudent: map[string]*models.User{
				"20230001|张三": {ID: 7, StudentID: "20230001", Name: "张三", WechatOpenID: openid},
			},
		}
	}

	t.Run("fresh bind succeeds", func(t *testing.T) {
		users := enrolled(nil)
		svc := newUserService(users)

		alreadyBound, err := svc.Bind(context.Background(), "openid-1", "20230001", "张三")
		if err != nil {
			t.Fatalf("Bind() error = %v", err)
		}
		if alreadyBound {
			t.Fatal("alreadyBound = true, want false for a fresh bind")
		}
		if users.bindCalls != 1 || users.boundUserID != 7 || users.boundOpenID != "openid-1" {
			t.Fatalf("bind recorded = (%d, %d, %q)", users.bindCalls, users.boundUserID, users.boundOpenID)
		}
	})

	t.Run("unknown student rejected", func(t *testing.T) {
		svc := newUserService(enrolled(nil))

		if _, err := svc.Bind(context.Background(), "openid-1", "99999999", "张三"); !errors.Is(err, apperrors.ErrNotEnrolled) {
			t.Fatalf("Bind() error = %v, want ErrNotEnrolled", err)
		}
	})

	t.Run("name must match the enrollment record", func(t *testing.T) {
		svc := newUserService(enrolled(nil))

		if _, err := svc.Bind(context.Background(), "openid-1", "20230001", "李四"); !errors.Is(err, apperrors.ErrNotEnrolled) {
			t.Fatalf("Bind() error = %v, want ErrNotEnrolled", err)
		}
	})

	t.Run("rebinding the same identity is a no-op", func(t *testing.T) {
		users := enrolled(strPtr("openid-1"))
		svc := newUserService(users)

		alreadyBound, err := svc.Bind(context.Background(), "openid-1", "20230001", "张三")
		if err != nil {
			t.Fatalf("Bind() error = %v", err)
		}
		if !alreadyBound {
			t.Fatal("alreadyBound = false, want true")
		}
		if users.bindCalls != 0 {
			t.Fatalf("bindCalls = %d, rebind must not write", users.bindCalls)
		}
	})

	t.Run("student bound to another identity rejected", func(t *testing.T) {
		svc := newUserService(enrolled(strPtr("someone-else")))

		if _, err := svc.Bind(context.Background(), "openid-1", "20230001", "张三"); !errors.Is(err, apperrors.ErrBoundElsewhere) {
			t.Fatalf("Bind() error = %v, want ErrBoundElsewhere", err)
		}
	})

	t.Run("concurrent bind of another identity loses", func(t *testing.T) {
		users := enrolled(nil)
		users.afterLookup = func() {
			users.byStudent["20230001|张三"].WechatOpenID = strPtr("openid-winner")
		}
		svc := newUserService(users)

		if _, err := svc.Bind(context.Background(), "openid-1", "20230001", "张三"); !errors.Is(err, apperrors.ErrBoundElsewhere) {
			t.Fatalf("Bind() error = %v, want ErrBoundElsewhere", err)
		}
		if got := *users.byStudent["20230001|张三"].WechatOpenID; got != "openid-winner" {
			t.Fatalf("stored openid = %q, an earlier bind must never be overwritten", got)
		}
	})

	t.Run("unique index race maps to bound elsewhere", func(t *testing.T) {
		users := enrolled(nil)
		users.bindErr = apperrors.ErrConflict
		svc := newUserService(users)

		if _, err := svc.Bind(context.Background(), "openid-1", "20230001", "张三"); !errors.Is(err, apperrors.ErrBoundElsewhere) {
			t.Fatalf("Bind() error = %v, want ErrBoundElsewhere", err)
		}
	})

	t.Run("empty fields rejected", func(t *testing.T) {
		svc := newUserService(enrolled(nil))

		if _, err := svc.Bind(context.Background(), "openid-1", "", "张三"); !errors.Is(err, apperrors.ErrValidationFailed) {
			t.Fatalf("Bind() error = %v, want ErrValidationFailed", err)
		}
	})
}

func TestIsBound(t *testing.T) {
	users := &fakeUserStore{byOpenID: map[string]*models.User{
		"openid-1": boundUser(7, "openid-1"),
	}}
	svc := newUserService(users)

	bound, err := svc.IsBound(context.Background(), "openid-1")
	if err != nil || !bound {
		t.Fatalf("IsBound() = (%v, %v), want (true, nil)", bound, err)
	}

	bound, err = svc.IsBound(context.Background(), "ghost")
	if err != nil || bound {
		t.Fatalf("IsBound() = (%v, %v), want (false, nil)", bound, err)
	}
}

func TestGetUserInfo(t *testing.T) {
	users := &fakeUserStore{byOpenID: map[string]*models.User{
		"openid-1": boundUser(7, "openid-1"),
		"openid-2": boundUser(8, "openid-2"),
	}}

	svc := newUserService(users, "openid-2")

	info, err := svc.GetUserInfo(context.Background(), "openid-1")
	if err != nil {
		t.Fatalf("GetUserInfo() error = %v", err)
	}
	if info.IsAdmin {
		t.Fatal("IsAdmin = true for a regular user")
	}

	info, err = svc.GetUserInfo(context.Background(), "openid-2")
	if err != nil {
		t.Fatalf("GetUserInfo() error = %v", err)
	}
	if !info.IsAdmin {
		t.Fatal("IsAdmin = false for an allow-listed openid")
	}

	if _, err := svc.GetUserInfo(context.Background(), "ghost"); !errors.Is(err, apperrors.ErrUserNotBound) {
		t.Fatalf("GetUserInfo() error = %v, want ErrUserNotBound", err)
	}
}
