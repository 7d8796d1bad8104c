package domain

// Role роль пользователя, от имени которого выполняется операция
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

func (r Role) IsValid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// Actor кто выполняет операцию (для проверки прав и аудита)
type Actor struct {
	UserID int64
	Role   Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanAccess клиент видит только свои бронирования, администратор - все
func (a Actor) CanAccess(b *Booking) bool {
	return a.IsAdmin() || b.BelongsTo(a.UserID)
}
