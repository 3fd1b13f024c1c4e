package users

type Role string

const (
	RoleUser     Role = "USER"
	RoleSupplier Role = "SUPPLIER"
	RoleAdmin    Role = "ADMIN"
)

func (r Role) String() string {
	return string(r)
}
