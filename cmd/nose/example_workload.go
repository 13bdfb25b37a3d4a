//
// nose - an automated schema and index advisor for wide-column stores
//
//  Copyright (c) 2026 The NoSE Authors. All rights reserved.
//

package main

import (
	"github.com/nose-project/nose/entities/model"
	"github.com/nose-project/nose/usecases/workloaddsl"
)

func init() {
	registeredWorkloads["example"] = buildExampleWorkload
}

// buildExampleWorkload is a small user/article workload exercising a
// one-to-many foreign key, an equality query with an order-by and a
// limit, a point lookup, and an update that touches a materialized
// field.
func buildExampleWorkload() *workloaddsl.Builder {
	b := workloaddsl.New()

	user := b.Entity("User", 10_000).
		AddIdentifier("id", 8).
		AddScalar("username", model.FieldString, 32)
	userID := user.ID()
	b.AddEntity(user)

	b.AddEntity(b.Entity("Article", 1_000_000).
		AddIdentifier("id", 8).
		AddScalar("title", model.FieldString, 128).
		AddScalar("published_at", model.FieldDate, 8).
		AddForeignKey("author", userID, 8, false))

	b.Q("SELECT Article.title FROM User.Article WHERE User.id = ? ORDER BY Article.published_at LIMIT 10", 1.0)
	b.Q("SELECT User.username FROM User WHERE User.id = ?", 0.5)
	b.Group("peak", func(g *workloaddsl.Group) {
		g.Q("UPDATE Article SET Article.title = ? WHERE Article.id = ?", 0.1)
	})

	return b
}
