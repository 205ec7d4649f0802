package rbac

import "testing"

func TestRoleOptions_Order(t *testing.T) {
	// Порядок фиксирован: сначала Admin, затем General
	for i := 0; i < 3; i++ {
		options := RoleOptions()
		if len(options) != 2 {
			t.Fatalf("RoleOptions() вернул %d вариантов, ожидается 2", len(options))
		}
		if options[0].Label != "Admin" || options[0].Value != RoleAdmin {
			t.Errorf("options[0] = %+v, ожидается {Admin admin}", options[0])
		}
		if options[1].Label != "General" || options[1].Value != RoleGeneral {
			t.Errorf("options[1] = %+v, ожидается {General general}", options[1])
		}
	}
}

func TestRoleOptions_ReturnsCopy(t *testing.T) {
	options := RoleOptions()
	options[0].Label = "изменено"

	fresh := RoleOptions()
	if fresh[0].Label != "Admin" {
		t.Errorf("изменение результата RoleOptions() затронуло исходный список: %q", fresh[0].Label)
	}
}

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		role  string
		valid bool
	}{
		{RoleAdmin, true},
		{RoleGeneral, true},
		{"", false},
		{"root", false},
		{"Admin", false}, // роли чувствительны к регистру
	}

	for _, tt := range tests {
		if got := IsValidRole(tt.role); got != tt.valid {
			t.Errorf("IsValidRole(%q) = %v, ожидается %v", tt.role, got, tt.valid)
		}
	}
}

func TestHighestRole(t *testing.T) {
	if got := HighestRole(nil); got != "" {
		t.Errorf("HighestRole(nil) = %q, ожидается пустая строка", got)
	}
	if got := HighestRole([]string{RoleGeneral, RoleAdmin}); got != RoleAdmin {
		t.Errorf("HighestRole(general, admin) = %q, ожидается admin", got)
	}
	if got := HighestRole([]string{RoleGeneral}); got != RoleGeneral {
		t.Errorf("HighestRole(general) = %q, ожидается general", got)
	}
}

func TestMapGroupsToRole(t *testing.T) {
	adminGroups := []string{"portal-admins"}
	generalGroups := []string{"portal-users"}

	tests := []struct {
		name   string
		groups []string
		want   string
	}{
		{"группа администраторов", []string{"portal-admins"}, RoleAdmin},
		{"группа пользователей", []string{"portal-users"}, RoleGeneral},
		{"обе группы — максимальная роль", []string{"portal-users", "portal-admins"}, RoleAdmin},
		{"нет совпадений", []string{"other"}, ""},
		{"пустой список групп", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapGroupsToRole(tt.groups, adminGroups, generalGroups); got != tt.want {
				t.Errorf("MapGroupsToRole(%v) = %q, ожидается %q", tt.groups, got, tt.want)
			}
		})
	}
}
