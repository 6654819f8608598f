package model

import "github.com/google/uuid"

type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleStaff     Role = "STAFF"
	RoleCollector Role = "COLLECTOR"
	RoleFarmer    Role = "FARMER"
)

type Principal struct {
	UserID uuid.UUID
	Role   Role
}

func (p Principal) IsAdmin() bool     { return p.Role == RoleAdmin }
func (p Principal) IsStaff() bool     { return p.Role == RoleStaff }
func (p Principal) IsCollector() bool { return p.Role == RoleCollector }
func (p Principal) IsFarmer() bool    { return p.Role == RoleFarmer }
