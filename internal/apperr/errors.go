package apperr

import "errors"

// Базовые категории бизнес-ошибок. Сервисы заворачивают их через
// fmt.Errorf("%w: ...") с человеческим сообщением, хендлеры по errors.Is
// отображают категорию в HTTP-статус.
var (
	ErrNotFound   = errors.New("не найдено")
	ErrValidation = errors.New("ошибка валидации")
	ErrForbidden  = errors.New("доступ запрещён")
	ErrConflict   = errors.New("конфликт")
)
