// Package domain contains the core entities of the video generation
// service: tasks, their storyboard scenes, and supervised-call audit
// records. Entities validate themselves on construction and carry no
// persistence or transport concerns.
package domain
