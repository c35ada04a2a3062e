package schema

import (
	"reflect"
	"testing"
)

type testOwner struct {
	ID    int64      `po:"id,serial,primaryKey"`
	Name  *string    `po:"name,text"`
	Email string     `po:"email,varchar(320),unique,notNull"`
	Pets  []testPet  `po:"-,hasMany,cascade,foreignKey(owner_id)"`
	Notes []testNote `po:"-,hasMany"`
}

func (testOwner) TableName() string { return "owners" }

type testPet struct {
	ID      int64      `po:"id,serial,primaryKey"`
	Kind    string     `po:"kind,text,notNull,default('cat')"`
	OwnerID int64      `po:"owner_id,integer,notNull,fk:owners.id,onDelete:cascade"`
	Owner   *testOwner `po:"-,belongsTo,foreignKey(owner_id)"`
}

func (testPet) TableName() string { return "pets" }

type testNote struct {
	ID          int64  `po:"id,serial,primaryKey"`
	TestOwnerID int64  `po:"test_owner_id,integer"`
	Body        string `po:"body"`
}

type UserProfile struct {
	ID int `po:"id,primaryKey"`
}

func TestParser_Parse(t *testing.T) {
	parser := NewParser()

	t.Run("columns and primary key", func(t *testing.T) {
		table, err := parser.Parse(reflect.TypeOf(testOwner{}))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if table.Name != "owners" {
			t.Errorf("expected table name 'owners', got '%s'", table.Name)
		}
		if got := table.ColumnNames(); !reflect.DeepEqual(got, []string{"id", "name", "email"}) {
			t.Errorf("unexpected columns %v", got)
		}
		if table.PrimaryKey == nil || table.PrimaryKey.Name != "owners_pkey" {
			t.Fatalf("unexpected primary key %+v", table.PrimaryKey)
		}

		id := table.GetColumnByName("id")
		if id == nil || !id.AutoIncrement || id.Nullable || id.SQLType != "serial" {
			t.Errorf("unexpected id column %+v", id)
		}
		name := table.GetColumnByName("name")
		if name == nil || !name.Nullable || name.SQLType != "text" {
			t.Errorf("unexpected name column %+v", name)
		}
		email := table.GetColumnByName("email")
		if email == nil || email.Nullable || !email.Unique || email.SQLType != "varchar(320)" {
			t.Errorf("unexpected email column %+v", email)
		}
	})

	t.Run("pointer type is dereferenced", func(t *testing.T) {
		table, err := parser.Parse(reflect.TypeOf(&testPet{}))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if table.Name != "pets" {
			t.Errorf("expected 'pets', got %q", table.Name)
		}
		kind := table.GetColumnByName("kind")
		if kind == nil || kind.Default == nil || *kind.Default != "'cat'" {
			t.Errorf("unexpected kind column %+v", kind)
		}
	})

	t.Run("snake case fallback and type mapping", func(t *testing.T) {
		table, err := parser.Parse(reflect.TypeOf(UserProfile{}))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if table.Name != "user_profile" {
			t.Errorf("expected 'user_profile', got %q", table.Name)
		}
		if table.Columns[0].SQLType != "integer" {
			t.Errorf("expected integer, got %q", table.Columns[0].SQLType)
		}
	})

	t.Run("non struct", func(t *testing.T) {
		if _, err := parser.Parse(reflect.TypeOf(42)); err == nil {
			t.Error("expected error for non-struct")
		}
	})

	t.Run("cached", func(t *testing.T) {
		a, _ := parser.Parse(reflect.TypeOf(testOwner{}))
		b, _ := parser.Parse(reflect.TypeOf(testOwner{}))
		if a != b {
			t.Error("expected cached metadata to be reused")
		}
	})
}

func TestParser_ForeignKeys(t *testing.T) {
	table, err := NewParser().Parse(reflect.TypeOf(testPet{}))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(table.ForeignKeys) != 1 {
		t.Fatalf("expected 1 foreign key, got %d", len(table.ForeignKeys))
	}
	fk := table.ForeignKeys[0]
	if fk.Name != "fk_pets_owner_id_owners" {
		t.Errorf("unexpected constraint name %q", fk.Name)
	}
	if fk.ReferencedTable != "owners" || !reflect.DeepEqual(fk.ReferencedColumns, []string{"id"}) {
		t.Errorf("unexpected reference %+v", fk)
	}
	if fk.OnDelete != Cascade || fk.OnUpdate != NoAction {
		t.Errorf("unexpected actions %s/%s", fk.OnDelete, fk.OnUpdate)
	}
	if got := table.ReferencedTables(); !reflect.DeepEqual(got, []string{"owners"}) {
		t.Errorf("ReferencedTables() = %v", got)
	}
}

func TestParser_Relationships(t *testing.T) {
	parser := NewParser()

	owner, err := parser.Parse(reflect.TypeOf(testOwner{}))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(owner.Relationships) != 2 {
		t.Fatalf("expected 2 relationships, got %d", len(owner.Relationships))
	}

	pets := owner.GetRelationship("Pets")
	if pets == nil {
		t.Fatal("expected Pets relationship")
	}
	if pets.Type != HasMany || !pets.Cascade || pets.TargetTable != "pets" || pets.ForeignKey != "owner_id" || pets.References != "id" {
		t.Errorf("unexpected Pets relationship %+v", pets)
	}

	notes := owner.GetRelationship("Notes")
	if notes == nil || notes.Cascade || notes.ForeignKey != "test_owner_id" || notes.TargetTable != "test_note" {
		t.Errorf("unexpected Notes relationship %+v", notes)
	}

	deps := owner.CascadeDependents()
	if len(deps) != 1 || deps[0].SourceField != "Pets" {
		t.Errorf("CascadeDependents() = %+v", deps)
	}

	pet, err := parser.Parse(reflect.TypeOf(testPet{}))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	rel := pet.GetRelationship("Owner")
	if rel == nil || rel.Type != BelongsTo || rel.TargetTable != "owners" || rel.ForeignKey != "owner_id" {
		t.Errorf("unexpected Owner relationship %+v", rel)
	}
	if pet.GetRelationship("Missing") != nil {
		t.Error("expected nil for unknown relationship")
	}
}

func TestParser_InvalidDefault(t *testing.T) {
	type badDefault struct {
		At string `po:"at,timestamptz,default(CURRENT TIMESTAMP)"`
	}
	if _, err := NewParser().Parse(reflect.TypeOf(badDefault{})); err == nil {
		t.Error("expected error for misspelled default")
	}
}

func TestParseTag(t *testing.T) {
	p := NewParser()
	opts, err := p.parseTag("amount,numeric(8,2),default(0),fk:accounts.id,notNull")
	if err != nil {
		t.Fatalf("parseTag failed: %v", err)
	}
	if opts.Name != "amount" {
		t.Errorf("expected name 'amount', got %q", opts.Name)
	}
	if got := opts.GetSQLType(); got != "numeric(8,2)" {
		t.Errorf("GetSQLType() = %q", got)
	}
	if opts.Get("default") != "0" || opts.Get("fk") != "accounts.id" || !opts.Has("notNull") {
		t.Errorf("unexpected options %v", opts.Options)
	}

	if _, err := p.parseTag("x,varchar(12"); err == nil {
		t.Error("expected error for unterminated option")
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Hero":      "hero",
		"HeroPower": "hero_power",
		"SuperName": "super_name",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestForeignKeyName(t *testing.T) {
	if got := ForeignKeyName("hero_powers", "hero_id", "heroes"); got != "fk_hero_powers_hero_id_heroes" {
		t.Errorf("ForeignKeyName() = %q", got)
	}
}
