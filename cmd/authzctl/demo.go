package main

import "github.com/hodei-sh/authz-core/kernel"

// The demo bounded context below is the "something wired end to end" every
// composition root needs to be runnable without a real bounded context
// plugged in: a User/Group/Account hierarchy with two actions, CreateUser
// and ReadAccount.
// It is registered into the schema builder once, at startup, exactly as a
// real bounded context's own package would register its own entity and
// action descriptors.

type userDescriptor struct{}

func (userDescriptor) ServiceName() kernel.ServiceName { return "iam" }
func (userDescriptor) TypeName() kernel.TypeName       { return "User" }
func (userDescriptor) AttributesSchema() kernel.AttributeSchema {
	return kernel.AttributeSchema{
		{Name: "email", Type: kernel.String()},
		{Name: "status", Type: kernel.String()},
	}
}
func (userDescriptor) IsPrincipal() {}
func (userDescriptor) ParentTypes() []kernel.QualifiedTypeName {
	return []kernel.QualifiedTypeName{"Iam::Group"}
}

type groupDescriptor struct{}

func (groupDescriptor) ServiceName() kernel.ServiceName          { return "iam" }
func (groupDescriptor) TypeName() kernel.TypeName                { return "Group" }
func (groupDescriptor) AttributesSchema() kernel.AttributeSchema { return nil }

type accountDescriptor struct{}

func (accountDescriptor) ServiceName() kernel.ServiceName { return "iam" }
func (accountDescriptor) TypeName() kernel.TypeName       { return "Account" }
func (accountDescriptor) AttributesSchema() kernel.AttributeSchema {
	return kernel.AttributeSchema{
		{Name: "name", Type: kernel.String()},
	}
}
func (accountDescriptor) IsResource() {}

type createUserAction struct{}

func (createUserAction) Name() string                    { return "CreateUser" }
func (createUserAction) ServiceName() kernel.ServiceName { return "iam" }
func (createUserAction) AppliesToPrincipal() []kernel.QualifiedTypeName {
	return []kernel.QualifiedTypeName{"Iam::User"}
}
func (createUserAction) AppliesToResource() []kernel.QualifiedTypeName {
	return []kernel.QualifiedTypeName{"Iam::Account"}
}

type readAccountAction struct{}

func (readAccountAction) Name() string                    { return "ReadAccount" }
func (readAccountAction) ServiceName() kernel.ServiceName { return "iam" }
func (readAccountAction) AppliesToPrincipal() []kernel.QualifiedTypeName {
	return []kernel.QualifiedTypeName{"Iam::User"}
}
func (readAccountAction) AppliesToResource() []kernel.QualifiedTypeName {
	return []kernel.QualifiedTypeName{"Iam::Account"}
}

// demoDescriptors returns the demo bounded context's entity and action
// descriptors for registration at startup by newApp.
func demoDescriptors() ([]kernel.EntityTypeDescriptor, []kernel.ActionDescriptor) {
	entities := []kernel.EntityTypeDescriptor{
		userDescriptor{},
		groupDescriptor{},
		accountDescriptor{},
	}
	actions := []kernel.ActionDescriptor{
		createUserAction{},
		readAccountAction{},
	}
	return entities, actions
}
