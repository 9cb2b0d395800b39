package models

// Document is a rendered file waiting to be delivered to a chat.
type Document struct {
	Path string // Location of the file on disk
	Name string // File name shown to the user
}
