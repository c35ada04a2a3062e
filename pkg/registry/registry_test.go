package registry

import (
	"reflect"
	"testing"
)

type Author struct {
	ID   int64  `po:"id,serial,primaryKey"`
	Name string `po:"name,text,notNull"`
}

func (Author) TableName() string { return "authors" }

type Book struct {
	ID       int64 `po:"id,serial,primaryKey"`
	AuthorID int64 `po:"author_id,integer,notNull,fk:authors.id,onDelete:cascade"`
}

func (Book) TableName() string { return "books" }

type Review struct {
	ID     int64 `po:"id,serial,primaryKey"`
	BookID int64 `po:"book_id,integer,fk:books.id"`
}

func (Review) TableName() string { return "a_reviews" }

type Impostor struct {
	ID int64 `po:"id,primaryKey"`
}

func (Impostor) TableName() string { return "authors" }

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry()

	t.Run("register new model", func(t *testing.T) {
		if err := reg.Register(Author{}); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if !reg.Has(reflect.TypeOf(Author{})) {
			t.Error("expected model to be registered")
		}
	})

	t.Run("register is idempotent and accepts pointers", func(t *testing.T) {
		if err := reg.Register(&Author{}); err != nil {
			t.Errorf("duplicate register failed: %v", err)
		}
	})

	t.Run("conflicting table name", func(t *testing.T) {
		if err := reg.Register(Impostor{}); err == nil {
			t.Error("expected error for a second type claiming the same table")
		}
	})

	t.Run("invalid types", func(t *testing.T) {
		if err := reg.Register("not a struct"); err == nil {
			t.Error("expected error for non-struct")
		}
		if err := reg.Register(nil); err == nil {
			t.Error("expected error for nil")
		}
	})
}

func TestRegistry_Lookup(t *testing.T) {
	reg := NewRegistry()

	table, err := reg.GetOrRegister(Book{})
	if err != nil {
		t.Fatalf("GetOrRegister failed: %v", err)
	}
	if table.Name != "books" {
		t.Errorf("expected 'books', got %q", table.Name)
	}

	byType, err := reg.Get(reflect.TypeOf(&Book{}))
	if err != nil || byType != table {
		t.Errorf("Get() = %v, %v", byType, err)
	}
	byName, err := reg.GetByName("books")
	if err != nil || byName != table {
		t.Errorf("GetByName() = %v, %v", byName, err)
	}

	if _, err := reg.GetByName("missing"); err == nil {
		t.Error("expected error for unknown table")
	}
	if _, err := reg.Get(reflect.TypeOf(Author{})); err == nil {
		t.Error("expected error for unregistered type")
	}

	reg.Clear()
	if reg.Has(reflect.TypeOf(Book{})) {
		t.Error("expected registry to be empty after Clear")
	}
}

func TestRegistry_AllDependencyOrder(t *testing.T) {
	reg := NewRegistry()
	for _, m := range []any{Review{}, Book{}, Author{}} {
		if err := reg.Register(m); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}

	var names []string
	for _, table := range reg.All() {
		names = append(names, table.Name)
	}
	want := []string{"authors", "books", "a_reviews"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("All() order = %v, want %v", names, want)
	}
}
