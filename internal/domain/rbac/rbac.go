// Пакет rbac — роли пользователей White Portal и определение роли вызывающего.
// Две роли: admin (администратор портала) и general (обычный пользователь).
// Роль вызывающего вычисляется из групп IdP; роль учётной записи хранится в БД.
package rbac

// Роли в порядке возрастания привилегий.
const (
	RoleGeneral = "general"
	RoleAdmin   = "admin"
)

// roleWeight — вес роли для сравнения.
// Чем выше вес, тем больше привилегий.
var roleWeight = map[string]int{
	RoleGeneral: 1,
	RoleAdmin:   2,
}

// RoleOption — пара (подпись, значение) для элемента выбора роли на форме.
type RoleOption struct {
	// Label — подпись, отображаемая пользователю.
	Label string
	// Value — значение роли, отправляемое формой.
	Value string
}

// roleOptions — фиксированный список вариантов роли для форм.
// Порядок значим (порядок отображения) и не меняется после старта процесса.
var roleOptions = []RoleOption{
	{Label: "Admin", Value: RoleAdmin},
	{Label: "General", Value: RoleGeneral},
}

// RoleOptions возвращает список вариантов роли для элемента выбора на форме.
// Возвращается копия — вызывающий не может изменить исходный список.
func RoleOptions() []RoleOption {
	options := make([]RoleOption, len(roleOptions))
	copy(options, roleOptions)
	return options
}

// IsValidRole проверяет, является ли строка допустимой ролью.
func IsValidRole(role string) bool {
	_, ok := roleWeight[role]
	return ok
}

// HighestRole возвращает максимальную роль из набора.
// Если набор пуст — возвращает пустую строку.
func HighestRole(roles []string) string {
	if len(roles) == 0 {
		return ""
	}
	highest := roles[0]
	for _, r := range roles[1:] {
		highest = maxRole(highest, r)
	}
	return highest
}

// maxRole возвращает роль с максимальными привилегиями из двух.
func maxRole(a, b string) string {
	wa := roleWeight[a]
	wb := roleWeight[b]
	if wa >= wb {
		return a
	}
	return b
}

// MapGroupsToRole определяет роль вызывающего на основе его групп IdP.
// Проверяет принадлежность к adminGroups и generalGroups.
// Возвращает максимальную роль из всех совпадений.
// Если ни одна группа не совпала — возвращает пустую строку.
func MapGroupsToRole(groups []string, adminGroups, generalGroups []string) string {
	adminSet := toSet(adminGroups)
	generalSet := toSet(generalGroups)

	var roles []string
	for _, g := range groups {
		if adminSet[g] {
			roles = append(roles, RoleAdmin)
		}
		if generalSet[g] {
			roles = append(roles, RoleGeneral)
		}
	}

	return HighestRole(roles)
}

// toSet конвертирует срез строк в map для быстрого поиска.
func toSet(items []string) map[string]bool {
	s := make(map[string]bool, len(items))
	for _, item := range items {
		s[item] = true
	}
	return s
}
