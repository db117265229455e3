package main

import (
	"context"
	"os"
)

func main() {
	ctx := context.Background()
	rt := &runtime{}
	err := newRootCmd(rt).ExecuteContext(ctx)
	rt.close(ctx)
	if err != nil {
		os.Exit(1)
	}
}
