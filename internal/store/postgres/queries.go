package postgres

// SQL statements for the store.Tx implementation, grouped by entity. Kept
// as named constants rather than inline strings so the shape of each table
// is visible in one place, the way the teacher's queries.go does for the
// event-store schema.

const (
	insertTeam = `
		INSERT INTO teams (id, name, slug, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	selectTeamByID = `
		SELECT id, name, slug, metadata, created_at, deleted_at
		FROM teams WHERE id = $1
	`
	selectTeamBySlug = `
		SELECT id, name, slug, metadata, created_at, deleted_at
		FROM teams WHERE slug = $1
	`
	selectTeamsPage = `
		SELECT id, name, slug, metadata, created_at, deleted_at
		FROM teams
		WHERE ($1::bool OR deleted_at IS NULL) AND id > $2
		ORDER BY id ASC
		LIMIT $3
	`
	softDeleteTeam = `UPDATE teams SET deleted_at = now() WHERE id = $1`

	insertAsset = `
		INSERT INTO assets (id, fqn, owner_team_id, resource_type, current_contract_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	selectAssetByID = `
		SELECT id, fqn, owner_team_id, resource_type, current_contract_id, metadata, created_at, deleted_at
		FROM assets WHERE id = $1
	`
	selectAssetByIDForUpdate = `
		SELECT id, fqn, owner_team_id, resource_type, current_contract_id, metadata, created_at, deleted_at
		FROM assets WHERE id = $1
		FOR UPDATE
	`
	selectAssetByFQN = `
		SELECT id, fqn, owner_team_id, resource_type, current_contract_id, metadata, created_at, deleted_at
		FROM assets WHERE fqn = $1 AND deleted_at IS NULL
	`
	selectAssetsPage = `
		SELECT id, fqn, owner_team_id, resource_type, current_contract_id, metadata, created_at, deleted_at
		FROM assets
		WHERE ($1::bool OR deleted_at IS NULL)
		  AND ($2 = '' OR owner_team_id = $2)
		  AND ($3 = '' OR resource_type = $3)
		  AND id > $4
		ORDER BY id ASC
		LIMIT $5
	`
	updateAssetCurrentContract = `UPDATE assets SET current_contract_id = $2 WHERE id = $1`
	softDeleteAsset            = `UPDATE assets SET deleted_at = now() WHERE id = $1`

	insertContract = `
		INSERT INTO contracts (id, asset_id, version, schema, compatibility_mode, guarantees, status, published_at, published_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	selectContractByID = `
		SELECT id, asset_id, version, schema, compatibility_mode, guarantees, status, published_at, published_by
		FROM contracts WHERE id = $1
	`
	selectActiveContract = `
		SELECT id, asset_id, version, schema, compatibility_mode, guarantees, status, published_at, published_by
		FROM contracts WHERE asset_id = $1 AND status = 'active'
	`
	selectContractsPage = `
		SELECT id, asset_id, version, schema, compatibility_mode, guarantees, status, published_at, published_by
		FROM contracts
		WHERE asset_id = $1 AND id > $2
		ORDER BY id ASC
		LIMIT $3
	`
	updateContractStatus = `UPDATE contracts SET status = $2 WHERE id = $1`

	insertRegistration = `
		INSERT INTO registrations (id, asset_id, consumer_team_id, pinned_version, status, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	selectRegistrationByID = `
		SELECT id, asset_id, consumer_team_id, pinned_version, status, registered_at
		FROM registrations WHERE id = $1
	`
	selectActiveRegistrations = `
		SELECT id, asset_id, consumer_team_id, pinned_version, status, registered_at
		FROM registrations
		WHERE asset_id = $1 AND status = 'active'
		ORDER BY id ASC
	`
	selectRegistrationsPage = `
		SELECT id, asset_id, consumer_team_id, pinned_version, status, registered_at
		FROM registrations
		WHERE ($1 = '' OR asset_id = $1)
		  AND ($2 = '' OR consumer_team_id = $2)
		  AND ($3 = '' OR status = $3)
		  AND id > $4
		ORDER BY id ASC
		LIMIT $5
	`
	updateRegistrationStatus = `UPDATE registrations SET status = $2 WHERE id = $1`

	insertProposal = `
		INSERT INTO proposals (
			id, asset_id, base_contract_id, proposed_schema, proposed_version,
			proposed_compatibility_mode, breaking_changes, change_type, status,
			ack_snapshot_team_ids, proposed_by, proposed_at, resolved_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	selectProposalByID = `
		SELECT id, asset_id, base_contract_id, proposed_schema, proposed_version,
		       proposed_compatibility_mode, breaking_changes, change_type, status,
		       ack_snapshot_team_ids, proposed_by, proposed_at, resolved_at
		FROM proposals WHERE id = $1
	`
	selectPendingProposal = `
		SELECT id, asset_id, base_contract_id, proposed_schema, proposed_version,
		       proposed_compatibility_mode, breaking_changes, change_type, status,
		       ack_snapshot_team_ids, proposed_by, proposed_at, resolved_at
		FROM proposals WHERE asset_id = $1 AND status = 'pending'
	`
	selectProposalsPage = `
		SELECT id, asset_id, base_contract_id, proposed_schema, proposed_version,
		       proposed_compatibility_mode, breaking_changes, change_type, status,
		       ack_snapshot_team_ids, proposed_by, proposed_at, resolved_at
		FROM proposals
		WHERE ($1 = '' OR asset_id = $1)
		  AND ($2 = '' OR status = $2)
		  AND id > $3
		ORDER BY id ASC
		LIMIT $4
	`
	updateProposal = `
		UPDATE proposals SET
			proposed_schema = $2, proposed_version = $3, proposed_compatibility_mode = $4,
			breaking_changes = $5, change_type = $6, status = $7,
			ack_snapshot_team_ids = $8, resolved_at = $9
		WHERE id = $1
	`

	upsertAcknowledgment = `
		INSERT INTO acknowledgments (id, proposal_id, consumer_team_id, response, migration_deadline, notes, responded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (proposal_id, consumer_team_id) DO UPDATE SET
			response = EXCLUDED.response,
			migration_deadline = EXCLUDED.migration_deadline,
			notes = EXCLUDED.notes,
			responded_at = EXCLUDED.responded_at
	`
	selectAcknowledgmentsByProposal = `
		SELECT id, proposal_id, consumer_team_id, response, migration_deadline, notes, responded_at
		FROM acknowledgments WHERE proposal_id = $1
		ORDER BY id ASC
	`

	insertDependency = `
		INSERT INTO asset_dependencies (upstream_asset_id, downstream_asset_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	selectDownstream = `
		SELECT upstream_asset_id, downstream_asset_id FROM asset_dependencies WHERE upstream_asset_id = $1
	`
	selectUpstream = `
		SELECT upstream_asset_id, downstream_asset_id FROM asset_dependencies WHERE downstream_asset_id = $1
	`

	insertAPIKey = `
		INSERT INTO api_keys (id, team_id, scope, key_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	selectAPIKeyByHash = `
		SELECT id, team_id, scope, key_hash, created_at, revoked_at
		FROM api_keys WHERE key_hash = $1
	`
	selectAPIKeysByTeam = `
		SELECT id, team_id, scope, key_hash, created_at, revoked_at
		FROM api_keys WHERE team_id = $1
		ORDER BY id ASC
	`
	revokeAPIKey = `UPDATE api_keys SET revoked_at = now() WHERE id = $1`

	insertAuditEvent = `
		INSERT INTO audit_events (id, entity_type, entity_id, action, actor_id, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	selectAuditPage = `
		SELECT id, entity_type, entity_id, action, actor_id, payload, occurred_at
		FROM audit_events
		WHERE (array_length($1::text[], 1) IS NULL OR entity_type = ANY($1::text[]))
		  AND ($2 = '' OR entity_id = $2)
		  AND ($3 = '' OR actor_id = $3)
		  AND ($4 = '' OR action = $4)
		  AND ($5::timestamptz IS NULL OR occurred_at >= $5)
		  AND ($6::timestamptz IS NULL OR occurred_at <= $6)
		  AND (occurred_at, id) > ($7::timestamptz, $8)
		ORDER BY occurred_at ASC, id ASC
		LIMIT $9
	`
)
