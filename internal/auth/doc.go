// Package auth signs users in against an Identity Toolkit compatible REST
// API (email and password, sign-up, or a third-party ID token such as
// Google's) and keeps the resulting session in the kv store.
//
// Sign-in state only affects what the profile view shows. The tracked and
// watch-later lists are stored per device and are the same whether or not
// anyone is signed in.
package auth
