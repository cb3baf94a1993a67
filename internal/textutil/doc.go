// Package textutil sanitizes free-form text into path segments that are safe
// to create under the destination tree.
package textutil
