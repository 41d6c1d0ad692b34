package models

import (
	"testing"
	"time"

	"github.com/janus-erp/janus/internal/documents"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&Company{}, &User{}, &SalesDocument{}, &SalesDocumentItem{}, &Role{}, &UserRole{}, &Customer{}, &Product{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestUser_BeforeCreateAssignsID(t *testing.T) {
	db := setupDB(t)
	u := &User{Email: "a@b.co"}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(u.ID) != 36 {
		t.Errorf("ID = %q, want a uuid", u.ID)
	}
	if u.IsConfirmed() || u.HasPassword() {
		t.Errorf("new user should be unconfirmed and without password")
	}
	if u.CompanyIDValue() != "" {
		t.Errorf("CompanyIDValue() = %q, want empty", u.CompanyIDValue())
	}
}

func TestOTPCode_Usable(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	consumed := now
	tests := []struct {
		name string
		otp  OTPCode
		want bool
	}{
		{"fresh", OTPCode{ExpiresAt: now.Add(time.Minute)}, true},
		{"expired", OTPCode{ExpiresAt: now}, false},
		{"consumed", OTPCode{ExpiresAt: now.Add(time.Minute), ConsumedAt: &consumed}, false},
		{"too many attempts", OTPCode{ExpiresAt: now.Add(time.Minute), Attempts: 5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.otp.Usable(now, 5); got != tt.want {
				t.Errorf("Usable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInvitation_Valid(t *testing.T) {
	now := time.Now()
	inv := Invitation{ExpiresAt: now.Add(time.Hour)}
	if !inv.Valid(now) {
		t.Fatal("expected valid invitation")
	}
	inv.AcceptedAt = &now
	if inv.Valid(now) {
		t.Fatal("accepted invitation must not be valid")
	}
}

func TestRegistration_Company(t *testing.T) {
	r := Registration{UserID: "u1", CompanyName: "Acme", CompanyType: CompanyTypeBoth, CompanyTaxID: "T-1"}
	c := r.Company()
	if c.Name != "Acme" || c.Type != "both" || c.TaxID != "T-1" || c.CreatedBy != "u1" {
		t.Errorf("Company() = %+v", c)
	}
}

func TestNextDocumentNumber(t *testing.T) {
	db := setupDB(t)

	got, err := NextDocumentNumber(db, "c1", documents.TypeInvoice, 2025)
	if err != nil {
		t.Fatal(err)
	}
	if got != "INV-2025-0001" {
		t.Fatalf("first number = %q", got)
	}

	for _, n := range []string{"INV-2025-0001", "INV-2025-0002"} {
		doc := &SalesDocument{CompanyID: "c1", CreatedBy: "u1", Type: documents.TypeInvoice, Number: n, IssueDate: time.Now()}
		if err := db.Create(doc).Error; err != nil {
			t.Fatal(err)
		}
	}
	// another company and another type do not share the sequence
	other := &SalesDocument{CompanyID: "c2", CreatedBy: "u2", Type: documents.TypeInvoice, Number: "INV-2025-0009", IssueDate: time.Now()}
	if err := db.Create(other).Error; err != nil {
		t.Fatal(err)
	}

	got, _ = NextDocumentNumber(db, "c1", documents.TypeInvoice, 2025)
	if got != "INV-2025-0003" {
		t.Errorf("next invoice = %q, want INV-2025-0003", got)
	}
	got, _ = NextDocumentNumber(db, "c1", documents.TypeEstimate, 2025)
	if got != "EST-2025-0001" {
		t.Errorf("first estimate = %q", got)
	}
	got, _ = NextDocumentNumber(db, "c1", documents.TypeInvoice, 2026)
	if got != "INV-2026-0001" {
		t.Errorf("new year = %q", got)
	}
}

func TestSalesDocument_ItemsRoundTrip(t *testing.T) {
	db := setupDB(t)
	items := []documents.Item{
		{ID: "l1", Quantity: 2, UnitPrice: 10, TaxPercent: 10},
		{ID: "l2", Quantity: 1, UnitPrice: 5},
	}
	doc := &SalesDocument{CompanyID: "c1", CreatedBy: "u1", Type: documents.TypeInvoice, Number: "INV-2025-0001", IssueDate: time.Now(), Items: NewSalesDocumentItems(items)}
	doc.ApplyTotals(documents.Compute(items, nil, doc.Type))
	if err := db.Create(doc).Error; err != nil {
		t.Fatal(err)
	}

	var loaded SalesDocument
	if err := db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).First(&loaded, "id = ?", doc.ID).Error; err != nil {
		t.Fatal(err)
	}
	if loaded.GetCompanyID() != "c1" || loaded.Total != 27 {
		t.Errorf("loaded = %+v", loaded)
	}
	got := loaded.DocumentItems()
	if len(got) != 2 || got[0].ID != "l1" || got[1].ID != "l2" {
		t.Errorf("items = %+v", got)
	}
}

func TestRole_PermissionsRoundTrip(t *testing.T) {
	db := setupDB(t)
	roles := DefaultRoles("c1", "u1")
	if err := db.Create(&roles).Error; err != nil {
		t.Fatal(err)
	}
	var loaded []Role
	if err := db.Order("role_name desc").Find(&loaded, "company_id = ?", "c1").Error; err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 2 || !loaded[0].IsSuperAdmin() || loaded[1].IsSuperAdmin() {
		t.Fatalf("roles = %+v", loaded)
	}
	want := []string{"customer:manage", "document:manage", "product:manage"}
	got := loaded[1].Permissions.Grants()
	if len(got) != len(want) {
		t.Fatalf("Grants() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Grants()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	dup := Role{CompanyID: "c1", Name: RoleMember, Permissions: PermissionMap{"document": {"view"}}}
	if err := db.Create(&dup).Error; err == nil {
		t.Error("role names must be unique per company")
	}
	other := Role{CompanyID: "c2", Name: RoleMember, Permissions: PermissionMap{"document": {"view"}}}
	if err := db.Create(&other).Error; err != nil {
		t.Errorf("same name in another company: %v", err)
	}
}

func TestSalesDocumentItem_ProductID(t *testing.T) {
	rows := NewSalesDocumentItems([]documents.Item{{ID: "l1", ProductID: "p1"}, {ID: "l2"}})
	if rows[0].ProductID == nil || *rows[0].ProductID != "p1" || rows[1].ProductID != nil {
		t.Fatalf("rows = %+v", rows)
	}
	if got := rows[0].Item().ProductID; got != "p1" {
		t.Errorf("Item().ProductID = %q", got)
	}
}

func TestAddress_Lines(t *testing.T) {
	a := Address{Street: "1 Main St", City: "Springfield", State: "IL", ZipCode: "62701", Country: "US"}
	got := a.Lines()
	want := []string{"1 Main St", "62701 Springfield, IL", "US"}
	if len(got) != len(want) {
		t.Fatalf("Lines() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Lines()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if len((Address{}).Lines()) != 0 {
		t.Error("empty address should have no lines")
	}
}
