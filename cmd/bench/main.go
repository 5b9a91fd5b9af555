// Command bench is the external driver program: it initializes
// whichever collector variant it's configured for, drives it through
// allocation workloads, and prints start/end GC stats.
package main

import (
	"github.com/sirupsen/logrus"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.WithError(err).Fatal("bench failed")
	}
}
