// Package cluster groups 2-D embedding coordinates so that donor
// selection can be spread across regions of composition space.
package cluster
