package contacts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/buildgroup/contactbook"
	"github.com/buildgroup/contactbook/memstore"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seed(t *testing.T, svc *Service, ownerID string, ins ...CreateInput) []contactbook.Contact {
	t.Helper()
	var out []contactbook.Contact
	for _, in := range ins {
		c, err := svc.Create(context.Background(), ownerID, in)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		out = append(out, *c)
	}
	return out
}

func TestCreateRequiresFirstName(t *testing.T) {
	svc := NewService(memstore.NewContactStore(), nil)
	if _, err := svc.Create(context.Background(), "o1", CreateInput{LastName: "Doe"}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestOwnerScoping(t *testing.T) {
	store := memstore.NewContactStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	mine := seed(t, svc, "o1", CreateInput{FirstName: "Ada", Email: "ada@example.com"})
	seed(t, svc, "o2", CreateInput{FirstName: "Bob", Email: "bob@example.com"})

	list, err := svc.List(ctx, "o1", 0, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].FirstName != "Ada" {
		t.Fatalf("list = %+v", list)
	}

	// Another owner's contact reads, updates and deletes as not found.
	if _, err := svc.Get(ctx, "o2", mine[0].ID); !errors.Is(err, contactbook.ErrNotFound) {
		t.Fatalf("cross-owner get: err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Update(ctx, "o2", mine[0].ID, CreateInput{FirstName: "Eve"}); !errors.Is(err, contactbook.ErrNotFound) {
		t.Fatalf("cross-owner update: err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Delete(ctx, "o2", mine[0].ID); !errors.Is(err, contactbook.ErrNotFound) {
		t.Fatalf("cross-owner delete: err = %v, want ErrNotFound", err)
	}

	all, err := svc.ListAll(ctx, 0, 0)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListAll = %d contacts, want 2", len(all))
	}
}

func TestUpdateAndDeleteReturnContact(t *testing.T) {
	svc := NewService(memstore.NewContactStore(), nil)
	ctx := context.Background()
	created := seed(t, svc, "o1", CreateInput{FirstName: "Ada"})[0]

	updated, err := svc.Update(ctx, "o1", created.ID, CreateInput{FirstName: "Ada", LastName: "Lovelace"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.LastName != "Lovelace" {
		t.Fatalf("updated = %+v", updated)
	}

	deleted, err := svc.Delete(ctx, "o1", created.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted.ID != created.ID {
		t.Fatal("delete must return the removed contact")
	}
	if _, err := svc.Get(ctx, "o1", created.ID); !errors.Is(err, contactbook.ErrNotFound) {
		t.Fatalf("get after delete: err = %v, want ErrNotFound", err)
	}
}

func TestSearch(t *testing.T) {
	svc := NewService(memstore.NewContactStore(), nil)
	ctx := context.Background()
	seed(t, svc, "o1",
		CreateInput{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
		CreateInput{FirstName: "Grace", LastName: "Hopper", Email: "grace@navy.mil"},
	)
	seed(t, svc, "o2", CreateInput{FirstName: "Adam", Email: "adam@example.com"})

	got, err := svc.Search(ctx, "o1", "ada", 0, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].FirstName != "Ada" {
		t.Fatalf("search = %+v", got)
	}

	// Case-insensitive, matches email too.
	got, err = svc.Search(ctx, "o1", "NAVY", 0, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].FirstName != "Grace" {
		t.Fatalf("search = %+v", got)
	}

	got, err = svc.Search(ctx, "o1", "   ", 0, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 0 {
		t.Fatal("blank query must return nothing")
	}
}

func TestUpcomingBirthdays(t *testing.T) {
	now := date(2026, time.March, 28)
	store := memstore.NewContactStore()
	store.Now = func() time.Time { return now }
	svc := NewService(store, nil)
	ctx := context.Background()
	seed(t, svc, "o1",
		CreateInput{FirstName: "InWindow", Birthday: date(1990, time.April, 2)},
		CreateInput{FirstName: "MonthWrap", Birthday: date(1985, time.March, 30)},
		CreateInput{FirstName: "TooLate", Birthday: date(1990, time.May, 20)},
		CreateInput{FirstName: "NoBirthday"},
	)
	seed(t, svc, "o2", CreateInput{FirstName: "OtherOwner", Birthday: date(1990, time.March, 29)})

	got, err := svc.UpcomingBirthdays(ctx, "o1", 7)
	if err != nil {
		t.Fatalf("UpcomingBirthdays: %v", err)
	}
	names := map[string]bool{}
	for _, c := range got {
		names[c.FirstName] = true
	}
	if len(got) != 2 || !names["InWindow"] || !names["MonthWrap"] {
		t.Fatalf("birthdays = %+v", got)
	}
}

func TestListPagination(t *testing.T) {
	svc := NewService(memstore.NewContactStore(), nil)
	ctx := context.Background()
	seed(t, svc, "o1",
		CreateInput{FirstName: "A"},
		CreateInput{FirstName: "B"},
		CreateInput{FirstName: "C"},
	)

	got, err := svc.List(ctx, "o1", 1, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].FirstName != "B" {
		t.Fatalf("page = %+v", got)
	}
	got, err = svc.List(ctx, "o1", 10, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Fatal("skip past end must return empty")
	}
}
