// Package auth provides authentication and authorization for the admin.
//
// Authorization is a flat permission set. Roles bundle permissions, users
// hold roles, and the union of a user's role permissions is computed once at
// login and carried in the session token. Require checks that set before any
// state changing effect:
//
//	user, err := auth.Require(session.Get(c), auth.ManageProducts)
//	if err != nil {
//	    return err // ErrUnauthenticated or ErrForbidden
//	}
//
// ManageUsers is special in one way only: CanViewElevatedStatus uses it to
// decide who may see the roles and permissions of other users.
//
// Users authenticate against the local database (Argon2id hashes), an LDAP
// directory or an OpenID Connect provider. External users are mirrored into
// the users table by Service.UpsertExternalUser and may get their roles from
// their directory groups.
package auth
