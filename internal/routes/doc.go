// Package routes declares the served route set. Registration happens
// once at startup, before the listener opens; the table stays
// immutable for the process lifetime, so changing this set means
// changing this package and restarting.
package routes
