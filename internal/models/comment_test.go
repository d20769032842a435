package models

import (
	"testing"
	"time"
)

func TestCommentStatus(t *testing.T) {
	c := &Comment{}
	if c.Status() != CommentPending {
		t.Fatalf("новый комментарий должен быть pending, получили %s", c.Status())
	}

	c.IsApproved = true
	if c.Status() != CommentApproved {
		t.Fatalf("одобренный комментарий должен быть approved, получили %s", c.Status())
	}

	// Блокировка перекрывает одобрение.
	c.IsBlocked = true
	if c.Status() != CommentBlocked {
		t.Fatalf("заблокированный комментарий должен быть blocked, получили %s", c.Status())
	}
}

func TestCommentApprove_ClearsBlock(t *testing.T) {
	c := &Comment{}

	if err := c.Block(7, "спам"); err != nil {
		t.Fatalf("блокировка с причиной не должна падать: %v", err)
	}
	if !c.IsBlocked || c.IsApproved {
		t.Fatal("после Block ожидали is_blocked=true, is_approved=false")
	}
	if c.BlockReason == nil || *c.BlockReason != "спам" {
		t.Fatal("причина блокировки не сохранена")
	}

	c.Approve(9)
	if !c.IsApproved || c.IsBlocked {
		t.Fatal("после Approve ожидали is_approved=true, is_blocked=false")
	}
	if c.BlockReason != nil {
		t.Fatal("Approve должен очищать причину блокировки")
	}
	if c.ModeratedByID == nil || *c.ModeratedByID != 9 {
		t.Fatal("модератор не зафиксирован")
	}
	if !c.IsModerated() {
		t.Fatal("после Approve комментарий считается модерированным")
	}
}

func TestCommentBlock_EmptyReason(t *testing.T) {
	c := &Comment{}
	if err := c.Block(1, "   "); err == nil {
		t.Fatal("ожидалась ошибка при пустой причине блокировки")
	}
	if c.IsBlocked {
		t.Fatal("неудачная блокировка не должна менять состояние")
	}
}

func TestCommentCanBeEditedBy_Window(t *testing.T) {
	c := &Comment{AuthorID: 5, CreatedAt: time.Now().Add(-14*time.Minute - 59*time.Second)}

	if !c.CanBeEditedBy(5) {
		t.Fatal("автор в пределах окна должен иметь право редактировать")
	}
	if c.CanBeEditedBy(6) {
		t.Fatal("чужой пользователь не может редактировать комментарий")
	}

	c.CreatedAt = time.Now().Add(-15*time.Minute - time.Second)
	if c.CanBeEditedBy(5) {
		t.Fatal("после истечения окна редактирование запрещено даже автору")
	}
}

func TestCommentCanBeDeletedBy(t *testing.T) {
	c := &Comment{AuthorID: 5, CreatedAt: time.Now().Add(-24 * time.Hour)}

	if !c.CanBeDeletedBy(5, nil) {
		t.Fatal("автор может удалить свой комментарий без ограничения по времени")
	}
	if !c.CanBeDeletedBy(1, []string{RoleModerator}) {
		t.Fatal("модератор может удалить любой комментарий")
	}
	if !c.CanBeDeletedBy(1, []string{RoleAdmin}) {
		t.Fatal("администратор может удалить любой комментарий")
	}
	if c.CanBeDeletedBy(1, []string{RoleUser}) {
		t.Fatal("обычный пользователь не может удалить чужой комментарий")
	}
}

func TestCommentUpdateContent(t *testing.T) {
	c := &Comment{Content: "старый", IsApproved: true}
	c.UpdateContent("новый")

	if c.Content != "новый" {
		t.Fatal("текст не обновился")
	}
	if c.UpdatedAt == nil {
		t.Fatal("UpdatedAt должен быть проставлен")
	}
	if !c.IsApproved {
		t.Fatal("правка текста не должна трогать статус модерации")
	}
}

func TestCommentIsReply(t *testing.T) {
	parent := int64(3)
	if (&Comment{}).IsReply() {
		t.Fatal("корневой комментарий не является ответом")
	}
	if !(&Comment{ParentCommentID: &parent}).IsReply() {
		t.Fatal("комментарий с родителем — ответ")
	}
}
