package authz

import "github.com/resortstay/resort-booking/internal/domain"

// defaultPolicies builds the per-kind policy table. The base rules cover
// resort-scoped records; only self-only kinds and user management need
// overrides.
func defaultPolicies() map[domain.ResourceKind]Policy {
	return map[domain.ResourceKind]Policy{
		domain.KindResort: {
			// Managers maintain their own resorts but only admins register
			// new ones.
			AllowManagerCreate: false,
		},
		domain.KindRoomType: {
			AllowManagerCreate: true,
		},
		domain.KindRatePlan: {
			AllowManagerCreate: true,
		},
		domain.KindSeasonalRate: {
			AllowManagerCreate: true,
		},
		domain.KindAmenity: {
			AllowManagerCreate: true,
		},
		domain.KindBooking: {
			AllowManagerCreate: true,
		},
		domain.KindGuestProfile: {
			// guest records span resorts, so any staff member may read and
			// maintain them
			CanAccess:          crossResortStaff,
			AllowManagerCreate: true,
		},
		domain.KindManagerAssignment: {
			Overrides: map[Action]Predicate{
				ActionView:   assignmentSelfOrAdmin,
				ActionUpdate: assignmentSelfOrAdmin,
			},
		},
		domain.KindUser: {
			Overrides: map[Action]Predicate{
				ActionView:        userSelfOrAdmin,
				ActionUpdate:      userSelfOrAdmin,
				ActionDelete:      adminDeleteOtherUser,
				ActionForceDelete: adminDeleteOtherUser,
			},
		},
	}
}

// crossResortStaff admits every resort manager; used for records that are
// not owned by a single resort.
func crossResortStaff(actor *domain.Actor, res domain.Resource) bool {
	return actor.IsResortManager()
}

// assignmentSelfOrAdmin allows a manager to see their own resort assignment
func assignmentSelfOrAdmin(actor *domain.Actor, res domain.Resource) bool {
	if actor.IsAdmin() {
		return true
	}
	assignment, ok := res.(*domain.ManagerAssignment)
	if !ok {
		return false
	}
	return actor.ID == assignment.UserID
}

// userSelfOrAdmin allows actors to see and edit their own account
func userSelfOrAdmin(actor *domain.Actor, res domain.Resource) bool {
	if actor.IsAdmin() {
		return true
	}
	user, ok := res.(*domain.Actor)
	if !ok {
		return false
	}
	return actor.ID == user.ID
}

// adminDeleteOtherUser permits user deletion to admins only, and never the
// admin's own account.
func adminDeleteOtherUser(actor *domain.Actor, res domain.Resource) bool {
	if !actor.IsAdmin() {
		return false
	}
	user, ok := res.(*domain.Actor)
	if !ok {
		return false
	}
	return actor.ID != user.ID
}
