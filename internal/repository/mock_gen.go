// internal/repository/mock_gen.go
package repository

//go:generate mockgen -source=./todo.go -destination=../mocks/mock_todo_repository.go -package=mocks TodoRepositoryIface
//go:generate mockgen -source=./organization.go -destination=../mocks/mock_organization_repository.go -package=mocks OrganizationRepositoryIface
//go:generate mockgen -source=./member.go -destination=../mocks/mock_member_repository.go -package=mocks MemberRepositoryIface
//go:generate mockgen -source=./deletion_job.go -destination=../mocks/mock_deletion_job_repository.go -package=mocks DeletionJobRepositoryIface
//go:generate mockgen -source=./repository.go -destination=../mocks/mock_transaction.go -package=mocks Transaction
