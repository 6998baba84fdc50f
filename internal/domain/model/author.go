package model

// Author — пользователь CMS, создавший версию.
// Хранится в таблице authors.
type Author struct {
	// ID — UUID пользователя
	ID string
	// Username — логин
	Username string
	// FullName — полное имя (может быть пустым)
	FullName string
}

// DisplayName возвращает полное имя или логин, если имя не задано.
func (a *Author) DisplayName() string {
	if a.FullName != "" {
		return a.FullName
	}
	return a.Username
}
