package model

// All 返回需要迁移的全部模型，顺序满足外键依赖
func All() []any {
	return []any{&User{}, &Post{}, &Follow{}, &Fan{}, &Like{}, &Inbox{}, &Outbox{}}
}
