// Package ui renders git command progress for people reading the console.
//
// ConsoleCommandEventLogger plugs into execshell as a CommandEventObserver
// when console logging is selected, while structured logging keeps emitting
// machine readable command records.
package ui
